// Command test-client is a manual smoke test against a running server. It
// drives the full read-and-talk flow over the real channel protocol: search,
// generate an article, ask a first and follow-up question, then dump the
// accumulated insights.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/afterlinkhq/afterlink/chat"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	baseURL := os.Getenv("AFTERLINK_TEST_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}

	client := chat.NewClient(chat.NewHTTPChannelAPI(baseURL))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	query := "retirement planning in your 40s"
	fmt.Printf("searching: %q\n", query)
	results, err := client.Search(ctx, query)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	for _, r := range results {
		if r.ID != nil {
			fmt.Printf("  existing #%d: %s\n", *r.ID, r.Title)
		} else {
			fmt.Printf("  suggested: %s\n", r.Title)
		}
	}
	if len(results) == 0 {
		log.Fatal("search returned no results")
	}

	title := results[0].Title
	fmt.Printf("\ngenerating article: %q\n", title)
	article, err := client.GenerateArticle(ctx, title)
	if err != nil {
		log.Fatalf("article generation failed: %v", err)
	}
	fmt.Printf("  article #%d, %d bytes\n", article.ID, len(article.Content))

	sessionUserID := fmt.Sprintf("test-%d", time.Now().Unix())
	session, err := client.NewSession(ctx)
	if err != nil {
		log.Fatalf("failed to open session: %v", err)
	}
	defer session.Close(context.WithoutCancel(ctx))

	first := &chat.QuestionRequest{
		Question:         "how much should I be saving",
		ArticleTitle:     article.Title,
		ParagraphContext: firstParagraph(article.Content),
		SessionUserID:    sessionUserID,
		IsFirstMessage:   true,
	}
	fmt.Printf("\nfirst turn: %q\n", first.Question)
	reply, err := session.Ask(ctx, first)
	if err != nil {
		log.Fatalf("first turn failed: %v", err)
	}
	fmt.Printf("  assistant: %s\n", reply)

	followUp := &chat.QuestionRequest{
		Question:         first.Question,
		ArticleTitle:     first.ArticleTitle,
		ParagraphContext: first.ParagraphContext,
		SessionUserID:    sessionUserID,
		IsFirstMessage:   false,
		ConversationHistory: []chat.ConversationMessage{
			{Role: "user", Content: first.Question},
			{Role: "assistant", Content: reply},
			{Role: "user", Content: "My budget is about $800 a month."},
		},
	}
	fmt.Println("\nfollow-up turn: sharing a budget")
	reply, err = session.Ask(ctx, followUp)
	if err != nil {
		log.Fatalf("follow-up turn failed: %v", err)
	}
	fmt.Printf("  assistant: %s\n", reply)

	fmt.Println("\naccumulated insights:")
	insights, err := client.GetInsights(ctx)
	if err != nil {
		log.Fatalf("failed to fetch insights: %v", err)
	}
	for _, insight := range insights {
		fmt.Printf("  [%s] %s: %s\n", insight.Category, insight.SessionUserID, insight.Insight)
	}

	fmt.Println("\ndone")
}

func firstParagraph(content string) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\n' && content[i+1] == '\n' {
			return content[:i]
		}
	}
	return content
}
