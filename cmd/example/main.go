package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit/client"
	"github.com/spetersoncode/gemkit/live"
	"github.com/spetersoncode/gemkit/schema"
	"github.com/spetersoncode/gemkit/transform"
)

const defaultModel = "gemini-2.0-flash"

func main() {
	godotenv.Load()
	ctx := context.Background()

	if os.Getenv("GEMKIT_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	events := make(chan client.Event, 100)
	go func() {
		for e := range events {
			if e.Type != client.EventRequestStart {
				logrus.WithFields(logrus.Fields{
					"operation": e.Operation,
					"backend":   e.Backend,
					"duration":  e.Duration.Round(time.Millisecond),
				}).Debug(string(e.Type))
			}
		}
	}()

	c, err := client.New(ctx, client.Config{Events: events})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	model := os.Getenv("GEMKIT_MODEL")
	if model == "" {
		model = defaultModel
	}

	fmt.Printf("=== Generate (%s) ===\n", c.Backend())
	generate(ctx, c, model)

	fmt.Println("\n=== Stream ===")
	stream(ctx, c, model)

	fmt.Println("\n=== Chat ===")
	converse(ctx, c, model)

	fmt.Println("\n=== Typed ===")
	typed(ctx, c, model)

	fmt.Println("\n=== Tools ===")
	tools(ctx, c, model)

	if liveModel := os.Getenv("GEMKIT_LIVE_MODEL"); liveModel != "" {
		fmt.Println("\n=== Live ===")
		talk(ctx, c, liveModel)
	}
}

func generate(ctx context.Context, c *client.Client, model string) {
	resp, err := c.Models.GenerateContent(ctx, model, "Say hello in 3 different languages, one per line.", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(resp.Text())
	if u := resp.UsageMetadata; u != nil {
		fmt.Printf("[Tokens: %d in, %d out]\n", u.PromptTokenCount, u.CandidatesTokenCount)
	}
}

func stream(ctx context.Context, c *client.Client, model string) {
	for chunk, err := range c.Models.GenerateContentStream(ctx, model, "Count from one to five in words.", nil) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stream error: %v\n", err)
			return
		}
		fmt.Print(chunk.Text())
	}
	fmt.Println()
}

func converse(ctx context.Context, c *client.Client, model string) {
	chat, err := c.Chats.Create(model, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	for _, msg := range []string{"My favourite colour is teal.", "What is my favourite colour?"} {
		resp, err := chat.SendMessage(ctx, msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		fmt.Printf("> %s\n%s\n", msg, resp.Text())
	}
	fmt.Printf("[History: %d turns]\n", len(chat.History(true)))
}

type BookInfo struct {
	Title  string `json:"title" jsonschema:"description=The book title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

func typed(ctx context.Context, c *client.Client, model string) {
	book, err := client.GenerateTyped[BookInfo](ctx, c, model, "Name a classic science fiction novel.", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("%s by %s (%d)\n", book.Title, book.Author, book.Year)
}

func tools(ctx context.Context, c *client.Client, model string) {
	forecast := &transform.FunctionDeclaration{
		Name:        "get_forecast",
		Description: "Get the weather forecast for a city",
		Parameters: schema.Object().
			Field("location", schema.String().Desc("City name").Required()).
			Field("unit", schema.String().Enum("celsius", "fahrenheit")).
			Field("days", schema.Int().Min(1).Max(14)).
			MustMap(),
	}
	resp, err := c.Models.GenerateContent(ctx, model, "What will the weather be in Lisbon over the next three days?",
		&client.GenerateContentConfig{Tools: []any{forecast}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		fmt.Println(resp.Text())
		return
	}
	for _, call := range calls {
		fmt.Printf("%s(%v)\n", call.Name, call.Args)
	}
}

func talk(ctx context.Context, c *client.Client, model string) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	s, err := c.Live.Connect(ctx, model, &live.ConnectConfig{ResponseModalities: []string{"TEXT"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connect error: %v\n", err)
		return
	}
	defer s.Close()

	if err := s.Send(ctx, "Tell me a one-line joke.", true); err != nil {
		fmt.Fprintf(os.Stderr, "Send error: %v\n", err)
		return
	}
	var reply strings.Builder
	for msg, err := range s.Receive(ctx) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Receive error: %v\n", err)
			return
		}
		reply.WriteString(msg.Text())
	}
	fmt.Println(reply.String())
}
