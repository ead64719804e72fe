package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automatedhome/eavesdrum-bridge/pkg/api"
	"github.com/automatedhome/eavesdrum-bridge/pkg/bridge"
	"github.com/automatedhome/eavesdrum-bridge/pkg/client"
	"github.com/automatedhome/eavesdrum-bridge/pkg/store"
	"github.com/automatedhome/eavesdrum-bridge/pkg/transport"
	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
	"github.com/coreos/go-systemd/v22/daemon"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

func main() {
	defaults := types.DefaultConfig()
	configFile := flag.String("config", "", "Path to a yaml configuration file")
	device := flag.String("device", defaults.Device, "Host (and port) of the drum trigger controller, or a full ws:// url")
	broker := flag.String("broker", defaults.Broker, "The full url of the MQTT server to connect to ex: tcp://127.0.0.1:1883")
	clientID := flag.String("clientid", "", "A clientid for the MQTT connection (default: eavesdrum-<random>)")
	prefix := flag.String("prefix", defaults.Prefix, "MQTT topic prefix")
	listen := flag.String("listen", defaults.Listen, "Address of the HTTP API, empty to disable")
	verbose := flag.Bool("verbose", false, "Log websocket traffic")
	flag.Parse()

	cfg, err := types.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "broker":
			cfg.Broker = *broker
		case "clientid":
			cfg.ClientID = *clientID
		case "prefix":
			cfg.Prefix = *prefix
		case "listen":
			cfg.Listen = *listen
		}
	})
	if cfg.ClientID == "" {
		cfg.ClientID = "eavesdrum-" + uuid.New().String()[:8]
	}
	transport.SetVerbose(*verbose)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	conn := transport.New(transport.URLForHost(cfg.Device), transport.WithReconnectDelay(cfg.ReconnectDelayDuration()))
	drum := client.New(conn, store.New())

	var brg *bridge.Bridge
	opts := mqttOptions(cfg)
	opts.OnConnect = func(m mqtt.Client) {
		if err := brg.Subscribe(); err != nil {
			log.Printf("Failed to subscribe: %v\n", err)
		}
	}
	mqttClient := mqtt.NewClient(opts)
	brg = bridge.New(mqttClient, drum, cfg.Prefix)
	brg.Start()
	brg.Poll(cfg.SyncInterval())

	if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.Broker, token.Error())
	}
	log.Printf("Connected to %s as %s and listening\n", cfg.Broker, cfg.ClientID)

	drum.Connect()
	log.Printf("Connecting to drum controller on %s\n", conn.URL())

	var srv *http.Server
	if cfg.Listen != "" {
		srv = &http.Server{
			Addr:         cfg.Listen,
			Handler:      api.NewHandler(drum).Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("API listening on %s", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed: %v", err)
			}
		}()
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("Failed to notify systemd: %v", err)
	} else if ok {
		log.Println("Notified systemd")
	}

	<-interrupt
	log.Println("interrupt")
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
		cancel()
	}
	brg.Stop()
	drum.Close()
	mqttClient.Publish(brg.Topic("connected"), 0, true, "false").WaitTimeout(time.Second)
	mqttClient.Disconnect(250)
	log.Println("stopped")
}

func mqttOptions(cfg types.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetWill(cfg.Prefix+"/connected", "false", 0, true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("Lost connection to %s: %v\n", cfg.Broker, err)
	})
	return opts
}
