package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/madslundt/aws-rag/internal/types"
	"github.com/madslundt/aws-rag/pkg/config"
	"github.com/madslundt/aws-rag/pkg/llm"
	"github.com/madslundt/aws-rag/pkg/query"
	"github.com/madslundt/aws-rag/pkg/store"
)

const contextualizePromptTemplate = `Given a chat history and the latest user question which might
reference context in the chat history, formulate a standalone question which can be understood
without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise
return it as is.

Chat history:
%s

Latest question: %s`

type exchange struct {
	question string
	answer   string
}

func main() {
	var configPath, question string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&question, "query", "", "Ask a single question and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			color.Red("config: %v", err)
		}
		os.Exit(1)
	}

	if err := run(cfg, question); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, question string) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	index, err := store.NewWithConfig(store.VectorIndexConfig{
		ConnString:  cfg.Database.URL,
		TableName:   cfg.Database.TableName,
		VectorDim:   cfg.Database.VectorDim,
		SearchLimit: cfg.Database.SearchLimit,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector index: %v", err)
	}
	defer index.Close()

	docstore, err := store.NewSQLiteStore(cfg.Docstore.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize docstore: %v", err)
	}
	defer docstore.Close()

	model, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat model: %v", err)
	}

	retriever := query.NewRetriever(index, docstore.DocumentStore(), model, query.RetrieverConfig{
		SearchLimit: cfg.Database.SearchLimit,
	})

	ctx := context.Background()

	if question != "" {
		_, err := answerWithHistory(ctx, retriever, model, question, nil)
		return err
	}

	color.Cyan("Chat with your documents. Type 'exit' to quit, 'reset' to clear history, 'history' to review it.")

	var history []exchange
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Set(color.FgGreen)
		fmt.Print("\nYou: ")
		color.Unset()

		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		case "reset", "r":
			history = nil
			color.Yellow("History cleared.")
			continue
		case "history", "ch":
			if len(history) == 0 {
				color.Yellow("No history yet.")
				continue
			}
			for _, ex := range history {
				color.Green("You: %s", ex.question)
				color.Blue("AI: %s", ex.answer)
			}
			continue
		}

		answer, err := answerWithHistory(ctx, retriever, model, input, history)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		history = append(history, exchange{question: input, answer: answer})
	}
	return scanner.Err()
}

// answerWithHistory rewrites followup questions into standalone ones before
// retrieval, so "what about its pricing?" still finds the right documents.
func answerWithHistory(ctx context.Context, retriever *query.Retriever, model types.ChatModel, question string, history []exchange) (string, error) {
	standalone := question
	if len(history) > 0 {
		var transcript strings.Builder
		for _, ex := range history {
			fmt.Fprintf(&transcript, "You: %s\nAI: %s\n", ex.question, ex.answer)
		}

		rewritten, err := model.Generate(ctx,
			fmt.Sprintf(contextualizePromptTemplate, transcript.String(), question))
		if err == nil && strings.TrimSpace(rewritten) != "" {
			standalone = strings.TrimSpace(rewritten)
		}
	}

	answer, err := retriever.Answer(ctx, standalone)
	if err != nil {
		return "", err
	}

	color.Blue("\nAI: %s", answer.Text)
	if len(answer.Sources) > 0 {
		color.Cyan("\nSources:")
		for _, source := range answer.Sources {
			color.Cyan(" - %s", source)
		}
	}
	return answer.Text, nil
}
