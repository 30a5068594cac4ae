package chat

import "strings"

// Reserved command prefixes. Dispatch is by literal prefix match in the
// order of CommandPrefixes; first match wins.
const (
	PrefixSearch          = "SEARCH:"
	PrefixArticleQuestion = "ARTICLE_QUESTION:"
	PrefixGetArticle      = "GET_ARTICLE:"
	PrefixArticle         = "ARTICLE:"
	PrefixClearArticles   = "CLEAR_ARTICLES"
	PrefixGetInsights     = "GET_INSIGHTS"
	PrefixMatchICP        = "MATCH_ICP:"
)

// CommandPrefixes lists every reserved prefix in dispatch priority order.
// GET_ARTICLE and ARTICLE_QUESTION sort before ARTICLE so the longer
// prefixes are never shadowed by the shorter one.
var CommandPrefixes = []string{
	PrefixSearch,
	PrefixArticleQuestion,
	PrefixGetArticle,
	PrefixArticle,
	PrefixClearArticles,
	PrefixGetInsights,
	PrefixMatchICP,
}

// HasCommandPrefix reports whether text starts with any reserved prefix.
// The correlator uses it to skip retransmitted echoes of command traffic.
func HasCommandPrefix(text string) bool {
	for _, prefix := range CommandPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// Status placeholder messages the dispatcher posts while a long-running
// command is in flight. Awaiting callers list these in their exclusion set.
const (
	StatusSearching = "Searching the Afterlink library..."
	StatusWriting   = "Writing your article..."
	StatusThinking  = "Thinking..."
	StatusScoring   = "Scoring leads against your ICP..."
)

// UnknownCommandReply is returned for channel text matching no reserved prefix.
const UnknownCommandReply = "Unknown command. Please use the Afterlink interface to search and read articles."

// Article is a search result. ID is set only for previously stored articles;
// a nil ID denotes a fresh suggestion not yet persisted. The UI depends on
// this distinction to decide "fetch by id" vs "generate on demand".
type Article struct {
	ID      *int32 `json:"id,omitempty"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// FullArticle is a complete article body. Content may contain inline
// {{Q:phrase}} markers denoting embedded curiosity questions.
type FullArticle struct {
	ID      int32  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ConversationMessage is a single prior turn of an article-question session.
// The backend is stateless with respect to turn history; callers pass the
// full sequence on every turn.
type ConversationMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ContactInfo carries optionally captured lead contact details.
type ContactInfo struct {
	UserName          string `json:"userName,omitempty"`
	ContactPreference string `json:"contactPreference,omitempty"` // "email" or "phone"
	UserEmail         string `json:"userEmail,omitempty"`
	UserPhone         string `json:"userPhone,omitempty"`
}

// QuestionRequest is the ARTICLE_QUESTION payload.
type QuestionRequest struct {
	ArticleTitle        string                `json:"articleTitle"`
	ParagraphContext    string                `json:"paragraphContext"`
	Question            string                `json:"question"`
	ConversationHistory []ConversationMessage `json:"conversationHistory"`
	SessionUserID       string                `json:"sessionUserId"`
	IsFirstMessage      bool                  `json:"isFirstMessage"`
	ContactInfo         *ContactInfo          `json:"contactInfo,omitempty"`
}

// UserInsight is the wire form of an accumulated lead record.
type UserInsight struct {
	ID                int32  `json:"id"`
	SessionUserID     string `json:"sessionUserId"`
	ArticleTitle      string `json:"articleTitle"`
	Category          string `json:"category"`
	Insight           string `json:"insight"`
	RawMessage        string `json:"rawMessage"`
	UserName          string `json:"userName,omitempty"`
	ContactPreference string `json:"contactPreference,omitempty"`
	UserEmail         string `json:"userEmail,omitempty"`
	UserPhone         string `json:"userPhone,omitempty"`
	CreatedTs         int64  `json:"createdTs"`
	UpdatedTs         int64  `json:"updatedTs"`
}

// Lead is one entry of a MATCH_ICP request.
type Lead struct {
	SessionUserID string `json:"sessionUserId"`
	Insight       string `json:"insight"`
}

// MatchICPRequest is the MATCH_ICP payload.
type MatchICPRequest struct {
	ICPDescription string `json:"icpDescription"`
	Leads          []Lead `json:"leads"`
}

// Dimension is one scoring dimension's weighted contribution.
type Dimension struct {
	Points float64 `json:"points"`
	Max    float64 `json:"max"`
	Detail string  `json:"detail"`
}

// Breakdown holds the five per-dimension contributions of a lead score.
type Breakdown struct {
	Fit        Dimension `json:"fit"`
	Budget     Dimension `json:"budget"`
	Need       Dimension `json:"need"`
	Urgency    Dimension `json:"urgency"`
	Engagement Dimension `json:"engagement"`
}

// LeadScore is the scored result for one lead. Derived, never persisted.
type LeadScore struct {
	SessionUserID string    `json:"sessionUserId"`
	Score         int       `json:"score"`
	Reason        string    `json:"reason"`
	Breakdown     Breakdown `json:"breakdown"`
}

// ClearResult is the CLEAR_ARTICLES response.
type ClearResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
