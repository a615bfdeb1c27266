package p2p

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RedPaladin7/peerchat/keystore"
	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type apiFunc func(w http.ResponseWriter, r *http.Request) error

func makeHTTPHandlerFunc(f apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			JSON(w, statusFor(err), map[string]any{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrNoRemoteKey):
		return http.StatusConflict
	case errors.Is(err, ErrNoLocalKeys):
		return http.StatusNotFound
	case errors.Is(err, ErrServerStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type APIServer struct {
	listenAddr string
	server     *Server
}

func NewAPIServer(listenAddr string, server *Server) *APIServer {
	return &APIServer{
		server:     server,
		listenAddr: listenAddr,
	}
}

func (s *APIServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/api/health", makeHTTPHandlerFunc(s.handleHealth)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/status", makeHTTPHandlerFunc(s.handleStatus)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/messages", makeHTTPHandlerFunc(s.handleMessages)).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/keys", makeHTTPHandlerFunc(s.handleGetKeys)).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/keys", makeHTTPHandlerFunc(s.handleGenerateKeys)).Methods("POST")
	r.HandleFunc("/api/connect", makeHTTPHandlerFunc(s.handleConnect)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/disconnect", makeHTTPHandlerFunc(s.handleDisconnect)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/send", makeHTTPHandlerFunc(s.handleSend)).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/encrypt", makeHTTPHandlerFunc(s.handleEncrypt)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/decrypt", makeHTTPHandlerFunc(s.handleDecrypt)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/cipher/save", makeHTTPHandlerFunc(s.handleSaveCipher)).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/cipher/load", makeHTTPHandlerFunc(s.handleLoadCipher)).Methods("POST", "OPTIONS")
	return r
}

func (s *APIServer) Run() error {
	logrus.WithFields(logrus.Fields{
		"addr": s.listenAddr,
	}).Info("API Server starting...")

	return http.ListenAndServe(s.listenAddr, s.Router())
}

type KeysResponse struct {
	Public      toyrsa.PublicKey  `json:"public"`
	Private     toyrsa.PrivateKey `json:"private"`
	PublicFile  string            `json:"public_file"`
	PrivateFile string            `json:"private_file"`
}

type ConnectRequest struct {
	Addr string `json:"addr"`
}

type SendRequest struct {
	Text string `json:"text"`
}

type CipherResponse struct {
	Length int               `json:"length"`
	Cipher toyrsa.Ciphertext `json:"cipher"`
}

type EncryptRequest struct {
	Text string           `json:"text"`
	Key  toyrsa.PublicKey `json:"key"`
}

type DecryptRequest struct {
	Cipher toyrsa.Ciphertext `json:"cipher"`
	Key    toyrsa.PrivateKey `json:"key"`
}

type CipherFileRequest struct {
	Name   string            `json:"name"`
	Cipher toyrsa.Ciphertext `json:"cipher,omitempty"`
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"state":  s.server.Status().State,
	})
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, s.server.Status())
}

func (s *APIServer) handleMessages(w http.ResponseWriter, r *http.Request) error {
	return JSON(w, http.StatusOK, s.server.History().Entries())
}

func (s *APIServer) keysResponse(kp *toyrsa.KeyPair) KeysResponse {
	store := s.server.Store()
	return KeysResponse{
		Public:      kp.Public,
		Private:     kp.Private,
		PublicFile:  store.Path(s.server.LocalAddr, keystore.Public),
		PrivateFile: store.Path(s.server.LocalAddr, keystore.Private),
	}
}

func (s *APIServer) handleGetKeys(w http.ResponseWriter, r *http.Request) error {
	kp, err := s.server.LocalKeys()
	if err != nil {
		return err
	}
	return JSON(w, http.StatusOK, s.keysResponse(kp))
}

func (s *APIServer) handleGenerateKeys(w http.ResponseWriter, r *http.Request) error {
	kp, err := s.server.GenerateKeys()
	if err != nil {
		return err
	}
	return JSON(w, http.StatusCreated, s.keysResponse(kp))
}

func (s *APIServer) handleConnect(w http.ResponseWriter, r *http.Request) error {
	var req ConnectRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if err := s.server.Connect(req.Addr); err != nil {
		return err
	}
	return JSON(w, http.StatusOK, map[string]string{
		"status": "CONNECTING",
		"addr":   req.Addr,
	})
}

func (s *APIServer) handleDisconnect(w http.ResponseWriter, r *http.Request) error {
	if err := s.server.Disconnect(); err != nil {
		return err
	}
	return JSON(w, http.StatusOK, map[string]string{
		"status": "DISCONNECTED",
	})
}

func (s *APIServer) handleSend(w http.ResponseWriter, r *http.Request) error {
	var req SendRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	cipher, err := s.server.Send(req.Text)
	if err != nil {
		return err
	}
	return JSON(w, http.StatusOK, CipherResponse{Length: len(cipher), Cipher: cipher})
}

func (s *APIServer) handleEncrypt(w http.ResponseWriter, r *http.Request) error {
	var req EncryptRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	cipher := toyrsa.Encrypt(req.Text, req.Key)
	return JSON(w, http.StatusOK, CipherResponse{Length: len(cipher), Cipher: cipher})
}

func (s *APIServer) handleDecrypt(w http.ResponseWriter, r *http.Request) error {
	var req DecryptRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	return JSON(w, http.StatusOK, map[string]string{
		"text": toyrsa.Decrypt(req.Cipher, req.Key),
	})
}

func (s *APIServer) handleSaveCipher(w http.ResponseWriter, r *http.Request) error {
	var req CipherFileRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	path := s.server.Store().Resolve(req.Name)
	if err := keystore.SaveCipher(req.Cipher, path); err != nil {
		return err
	}
	return JSON(w, http.StatusOK, map[string]any{
		"path":   path,
		"length": len(req.Cipher),
	})
}

func (s *APIServer) handleLoadCipher(w http.ResponseWriter, r *http.Request) error {
	var req CipherFileRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	cipher := keystore.LoadCipher(s.server.Store().Resolve(req.Name))
	return JSON(w, http.StatusOK, CipherResponse{Length: len(cipher), Cipher: cipher})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %s", err)
	}
	return nil
}
