package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/RedPaladin7/peerchat/config"
	"github.com/RedPaladin7/peerchat/p2p"
	"github.com/sirupsen/logrus"
)

const defaultVersion = "1.1.0"

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (default ~/.peerchat/config.yaml if present)")
		port       = flag.Int("port", config.DefaultPort, "Chat listen port")
		host       = flag.String("host", "", "Chat listen host (empty for all interfaces)")
		apiPort    = flag.Int("api-port", 8080, "HTTP API port (0 disables the API)")
		connectTo  = flag.String("connect", "", "Connect to a peer (e.g., 192.168.1.20:12345)")
		localAddr  = flag.String("local-addr", "", "Address used to name key files (default: discovered)")
		keyDir     = flag.String("key-dir", ".", "Directory for key and cipher files")
		transcript = flag.String("transcript", "", "Load chat history from and save it to this JSON file")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		echo       = flag.Bool("echo", false, "Run a plain echo server on the chat port instead")
		console    = flag.Bool("console", true, "Read messages and commands from stdin")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("RSA Peer Chat v%s\n", defaultVersion)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath == "" {
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			*configPath = config.DefaultPath()
		}
	}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logrus.Fatalf("Invalid config: %s", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Network.ListenPort = *port
		case "host":
			cfg.Network.ListenHost = *host
		case "api-port":
			cfg.Network.APIPort = *apiPort
		case "connect":
			cfg.Network.Connect = *connectTo
		case "local-addr":
			cfg.Network.LocalAddr = *localAddr
		case "key-dir":
			cfg.Storage.KeyDir = *keyDir
		case "transcript":
			cfg.Storage.Transcript = *transcript
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %s", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", cfg.Log.Level)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	listenAddr := net.JoinHostPort(cfg.Network.ListenHost, strconv.Itoa(cfg.Network.ListenPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if *echo {
		runEcho(listenAddr, sigChan)
		return
	}

	dialTimeout, _ := cfg.DialTimeout()
	keyTimeout, _ := cfg.KeyExchangeTimeout()

	var notifier p2p.Notifier
	if *console {
		notifier = consoleNotifier{out: os.Stdout}
	}
	server := p2p.NewServer(p2p.ServerConfig{
		Version:            defaultVersion,
		ListenAddr:         listenAddr,
		LocalAddr:          cfg.Network.LocalAddr,
		KeyDir:             cfg.Storage.KeyDir,
		DialTimeout:        dialTimeout,
		KeyExchangeTimeout: keyTimeout,
		Notifier:           notifier,
	})
	if cfg.Storage.Transcript != "" {
		if _, err := os.Stat(cfg.Storage.Transcript); err == nil {
			if _, err := server.History().LoadTranscript(cfg.Storage.Transcript); err != nil {
				logrus.Warnf("Failed to load transcript: %s", err)
			}
		}
	}
	if err := server.Start(); err != nil {
		logrus.Fatalf("Failed to start: %s", err)
	}

	logrus.Info("===========================================")
	logrus.Info("  RSA Peer Chat (educational, NOT secure)")
	logrus.Info("===========================================")
	logrus.Infof("Version:        %s", defaultVersion)
	logrus.Infof("Your IP:        %s", server.LocalAddr)
	logrus.Infof("Chat Address:   %s", server.Addr())
	logrus.Infof("Key Directory:  %s", server.Store().Dir())
	if cfg.Network.APIPort > 0 {
		apiAddr := fmt.Sprintf("localhost:%d", cfg.Network.APIPort)
		logrus.Infof("API Address:    http://%s", apiAddr)
		go func() {
			if err := p2p.NewAPIServer(apiAddr, server).Run(); err != nil {
				logrus.Errorf("API server error: %s", err)
			}
		}()
	}
	logrus.Info("===========================================")

	if cfg.Network.Connect != "" {
		logrus.Infof("Connecting to peer: %s", cfg.Network.Connect)
		go func() {
			if err := server.Connect(cfg.Network.Connect); err != nil {
				logrus.Errorf("Failed to connect to peer %s: %s", cfg.Network.Connect, err)
			}
		}()
	}

	quit := make(chan struct{})
	if *console {
		go runConsole(server, os.Stdin, os.Stdout, quit)
	}

	select {
	case <-sigChan:
		logrus.Info("Shutdown signal received. Cleaning up...")
	case <-quit:
	}

	server.Stop()
	if cfg.Storage.Transcript != "" {
		if err := server.History().SaveTranscript(cfg.Storage.Transcript, server.LocalAddr); err != nil {
			logrus.Errorf("Failed to save transcript: %s", err)
		}
	}
	logrus.Info("Stopped, keys deleted")
}

func runEcho(listenAddr string, sigChan <-chan os.Signal) {
	srv := p2p.NewEchoServer(listenAddr)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if err != nil {
			logrus.Fatalf("Echo server failed: %s", err)
		}
	case <-sigChan:
		srv.Close()
	}
}
