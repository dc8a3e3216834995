package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"youtube-keyword-notifier/hub"
	"youtube-keyword-notifier/notifier"
)

const usage = `usage:
  notifier subscribe <handle> [keyword]    set up notifications for a channel
  notifier unsubscribe <handle|channelId>  stop notifications for a channel
  notifier serve [keyword]                 run the webhook server (and the
                                           keyword polling fallback, if given)`

func main() {
	file, err := os.ReadFile("./config.json")
	if err != nil {
		log.Fatalf("unable to read config file: %v", err.Error())
		return
	}

	var c notifier.Config
	err = json.Unmarshal(file, &c)
	if err != nil {
		log.Fatalf("unable to unmarshall config file: %v", err.Error())
		return
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		s := make(chan os.Signal, 1)
		signal.Notify(s, os.Interrupt, syscall.SIGTERM)
		<-s
		cancel()
	}()

	app, err := notifier.NewApp(ctx, c)
	if err != nil {
		log.Fatalf("unable to start: %v", err.Error())
		return
	}

	switch os.Args[1] {
	case "subscribe":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(2)
		}
		keyword := ""
		if len(os.Args) > 3 {
			keyword = os.Args[3]
		}
		channelId, err := app.Service.Subscribe(ctx, os.Args[2], keyword)
		if err != nil {
			log.Fatalf("subscribe failed: %v", err.Error())
			return
		}
		fmt.Printf("subscribed, channel id: %v\n", channelId)
	case "unsubscribe":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(2)
		}
		// Channel ids follow the UC prefix convention; anything else is
		// treated as a handle and resolved.
		target := hub.HandleTarget(os.Args[2])
		if strings.HasPrefix(os.Args[2], "UC") {
			target = hub.ChannelTarget(os.Args[2])
		}
		if !app.Service.Unsubscribe(ctx, target) {
			os.Exit(1)
		}
	case "serve":
		keyword := ""
		if len(os.Args) > 2 {
			keyword = os.Args[2]
		}
		err := app.Serve(ctx, keyword)
		if err != nil {
			log.Fatalf("webhook server failed: %v", err.Error())
		}
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
}
