// oscoap-gateway runs a standalone object-secured CoAP endpoint: it
// provisions a single security context from hex-encoded key material,
// listens for protected datagrams on a UDP port, unprotects and logs
// each request, and replies with a protected 2.05 Content response.
// It can optionally advertise itself over DNS-SD so peers find it
// without being told the address up front.
//
// Usage:
//
//	oscoap-gateway [options]
//
// Options:
//
//	-port          UDP port to listen on (default: 5683)
//	-cid           hex context id (default: 01)
//	-sender-key    hex AES-CCM key this side encrypts with (16 bytes)
//	-sender-iv     hex common IV this side encrypts with (7 bytes)
//	-receiver-key  hex AES-CCM key this side decrypts with (16 bytes)
//	-receiver-iv   hex common IV this side decrypts with (7 bytes)
//	-advertise     advertise this endpoint over DNS-SD (default: true)
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/logging"

	"github.com/go-oscoap/oscoap/pkg/coap"
	"github.com/go-oscoap/oscoap/pkg/context"
	"github.com/go-oscoap/oscoap/pkg/cose"
	"github.com/go-oscoap/oscoap/pkg/discovery"
	"github.com/go-oscoap/oscoap/pkg/oscoap"
	"github.com/go-oscoap/oscoap/pkg/transport"
)

type options struct {
	port         int
	cid          string
	senderKey    string
	senderIV     string
	receiverKey  string
	receiverIV   string
	advertise    bool
}

func defaultOptions() options {
	return options{
		port:        discovery.DefaultPort,
		cid:         "01",
		senderKey:   "000102030405060708090a0b0c0d0e0f",
		senderIV:    "00112233445566",
		receiverKey: "0f0e0d0c0b0a09080706050403020100",
		receiverIV:  "66554433221100",
		advertise:   true,
	}
}

func parseFlags() options {
	d := defaultOptions()
	o := options{}

	flag.IntVar(&o.port, "port", d.port, "UDP port to listen on")
	flag.StringVar(&o.cid, "cid", d.cid, "hex context id")
	flag.StringVar(&o.senderKey, "sender-key", d.senderKey, "hex AES-CCM key this side encrypts with (16 bytes)")
	flag.StringVar(&o.senderIV, "sender-iv", d.senderIV, "hex common IV this side encrypts with (7 bytes)")
	flag.StringVar(&o.receiverKey, "receiver-key", d.receiverKey, "hex AES-CCM key this side decrypts with (16 bytes)")
	flag.StringVar(&o.receiverIV, "receiver-iv", d.receiverIV, "hex common IV this side decrypts with (7 bytes)")
	flag.BoolVar(&o.advertise, "advertise", d.advertise, "advertise this endpoint over DNS-SD")
	flag.Parse()

	return o
}

func decodeHex(name, s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscoap-gateway: invalid -%s: %v\n", name, err)
		os.Exit(1)
	}
	return b
}

func main() {
	o := parseFlags()
	loggerFactory := logging.NewDefaultLoggerFactory()
	log := loggerFactory.NewLogger("gateway")

	cid := decodeHex("cid", o.cid)
	senderKey := decodeHex("sender-key", o.senderKey)
	senderIV := decodeHex("sender-iv", o.senderIV)
	receiverKey := decodeHex("receiver-key", o.receiverKey)
	receiverIV := decodeHex("receiver-iv", o.receiverIV)

	store := context.NewStore(context.DefaultCapacity)
	if _, err := store.New(cid, cose.AESCCM6464128, senderKey, senderIV, receiverKey, receiverIV); err != nil {
		log.Errorf("failed to provision security context: %v", err)
		os.Exit(1)
	}

	var udp *transport.UDP
	udp = transport.NewUDP(transport.UDPConfig{
		ListenAddr: fmt.Sprintf(":%d", o.port),
		LoggerFactory: loggerFactory,
		MessageHandler: func(msg *transport.ReceivedMessage) {
			handleDatagram(log, store, udp, msg)
		},
	})

	if err := udp.Start(); err != nil {
		log.Errorf("failed to start transport: %v", err)
		os.Exit(1)
	}
	defer udp.Stop()

	log.Infof("listening on %s, context id %x", udp.LocalAddr(), cid)

	var advertiser *discovery.Advertiser
	if o.advertise {
		advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          o.port,
			ContextID:     cid,
			LoggerFactory: loggerFactory,
		})
		if err := advertiser.Start(); err != nil {
			log.Warnf("failed to advertise: %v", err)
		} else {
			defer advertiser.Stop()
		}
	}

	waitForShutdown(log)
}

// handleDatagram unprotects an incoming request and replies with a
// protected 2.05 Content response carrying the request's own payload
// back, so a client can confirm its own round trip.
func handleDatagram(log logging.LeveledLogger, store *context.Store, udp *transport.UDP, msg *transport.ReceivedMessage) {
	outer := coap.NewMessage()
	outer.Code = coap.CodeGET
	outer.Options.Add(coap.OptObjectSecurity, msg.Data)

	req, err := oscoap.Unprotect(outer, store)
	if err != nil {
		log.Warnf("unprotect failed from %s: %v", msg.PeerAddr, err)
		return
	}

	log.Infof("request from %s: uri-path=%q payload=%x", msg.PeerAddr, req.Options.GetString(coap.OptURIPath), req.Payload)

	resp := coap.NewMessage()
	resp.Code = coap.Code205
	resp.Token = req.Token
	resp.Payload = req.Payload
	resp.Context = req.Context

	wire, err := oscoap.Protect(resp)
	if err != nil {
		log.Warnf("protect response failed: %v", err)
		return
	}

	if err := udp.Send(wire, msg.PeerAddr); err != nil {
		log.Warnf("send response failed: %v", err)
	}
}

func waitForShutdown(log logging.LeveledLogger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
}
