package p2p

import (
	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/sirupsen/logrus"
)

// Notifier is the front end a Session reports to.
type Notifier interface {
	Status(text string)
	KeysExchanged(peer string, key toyrsa.PublicKey)
	Message(from, text string)
	Sent(text string, cipher toyrsa.Ciphertext)
	Closed(peer string, err error)
}

type multiNotifier []Notifier

// MultiNotifier fans every notification out to all of ns.
func MultiNotifier(ns ...Notifier) Notifier {
	return multiNotifier(ns)
}

func (m multiNotifier) Status(text string) {
	for _, n := range m {
		n.Status(text)
	}
}

func (m multiNotifier) KeysExchanged(peer string, key toyrsa.PublicKey) {
	for _, n := range m {
		n.KeysExchanged(peer, key)
	}
}

func (m multiNotifier) Message(from, text string) {
	for _, n := range m {
		n.Message(from, text)
	}
}

func (m multiNotifier) Sent(text string, cipher toyrsa.Ciphertext) {
	for _, n := range m {
		n.Sent(text, cipher)
	}
}

func (m multiNotifier) Closed(peer string, err error) {
	for _, n := range m {
		n.Closed(peer, err)
	}
}

// LogNotifier writes notifications to logrus.
type LogNotifier struct{}

func (LogNotifier) Status(text string) {
	logrus.Info(text)
}

func (LogNotifier) KeysExchanged(peer string, key toyrsa.PublicKey) {
	logrus.WithFields(logrus.Fields{
		"peer": peer,
		"e":    key.E,
		"n":    key.N,
	}).Info("keys exchanged, chat ready")
}

func (LogNotifier) Message(from, text string) {
	logrus.WithFields(logrus.Fields{
		"from": from,
	}).Infof("message: %s", text)
}

func (LogNotifier) Sent(text string, cipher toyrsa.Ciphertext) {
	logrus.WithFields(logrus.Fields{
		"length": len(cipher),
		"cipher": cipher.Join(","),
	}).Debugf("sent: %s", text)
}

func (LogNotifier) Closed(peer string, err error) {
	fields := logrus.Fields{"peer": peer}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("connection closed")
		return
	}
	logrus.WithFields(fields).Info("connection closed")
}
