package genesys

import "time"

// --- Routing ---

type Queue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount *int   `json:"memberCount,omitempty"`
}

type QueueListing struct {
	Entities   []Queue `json:"entities"`
	PageNumber *int    `json:"pageNumber,omitempty"`
	PageSize   *int    `json:"pageSize,omitempty"`
	PageCount  *int    `json:"pageCount,omitempty"`
	Total      *int    `json:"total,omitempty"`
}

// --- Analytics ---

type Predicate struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

type SegmentFilter struct {
	Type       string      `json:"type"`
	Predicates []Predicate `json:"predicates"`
}

type Paging struct {
	PageSize   int `json:"pageSize"`
	PageNumber int `json:"pageNumber"`
}

// ConversationJobQuery is the body of an asynchronous conversation details job.
type ConversationJobQuery struct {
	Interval       string          `json:"interval"`
	Order          string          `json:"order,omitempty"`
	OrderBy        string          `json:"orderBy,omitempty"`
	SegmentFilters []SegmentFilter `json:"segmentFilters,omitempty"`
}

// ConversationQuery is the body of a synchronous conversation details query.
type ConversationQuery struct {
	Interval            string          `json:"interval"`
	Order               string          `json:"order,omitempty"`
	OrderBy             string          `json:"orderBy,omitempty"`
	Paging              *Paging         `json:"paging,omitempty"`
	SegmentFilters      []SegmentFilter `json:"segmentFilters"`
	ConversationFilters []SegmentFilter `json:"conversationFilters"`
	EvaluationFilters   []SegmentFilter `json:"evaluationFilters"`
	SurveyFilters       []SegmentFilter `json:"surveyFilters"`
}

type JobSubmission struct {
	JobID string `json:"jobId"`
}

// JobStatus is the status payload of a conversation details job.
type JobStatus struct {
	State          string `json:"state"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

type Conversation struct {
	ConversationID               string     `json:"conversationId"`
	ConversationStart            *time.Time `json:"conversationStart,omitempty"`
	ConversationEnd              *time.Time `json:"conversationEnd,omitempty"`
	MediaStatsMinConversationMos *float64   `json:"mediaStatsMinConversationMos,omitempty"`
}

// JobResults is one page of a finished job's conversations. An empty Cursor
// means there are no further pages.
type JobResults struct {
	Conversations []Conversation `json:"conversations"`
	Cursor        string         `json:"cursor,omitempty"`
}

type ConversationQueryResponse struct {
	Conversations []Conversation `json:"conversations"`
	TotalHits     *int           `json:"totalHits,omitempty"`
}

type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// --- Speech and text analytics ---

type ConversationRef struct {
	ID string `json:"id"`
}

type ConversationMetrics struct {
	Conversation   *ConversationRef `json:"conversation,omitempty"`
	SentimentScore *float64         `json:"sentimentScore,omitempty"`
	SentimentTrend *float64         `json:"sentimentTrend,omitempty"`
}

// --- OAuth ---

type UsageQuery struct {
	Interval string   `json:"interval"`
	Metrics  []string `json:"metrics"`
	GroupBy  []string `json:"groupBy,omitempty"`
}

type UsageExecution struct {
	ExecutionID string `json:"executionId"`
	ResultsURI  string `json:"resultsUri,omitempty"`
}

type UsageRow struct {
	TemplateURI string `json:"templateUri,omitempty"`
	HTTPMethod  string `json:"httpMethod,omitempty"`
	Requests    *int   `json:"requests,omitempty"`
}

// UsageQueryResult is both the status and the results of a usage query; the
// rows are populated once QueryStatus is Complete.
type UsageQueryResult struct {
	Results     []UsageRow `json:"results"`
	QueryStatus string     `json:"queryStatus"`
}

type RoleDivision struct {
	RoleID     string `json:"roleId"`
	DivisionID string `json:"divisionId"`
}

type OAuthClient struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	RoleIDs       []string       `json:"roleIds,omitempty"`
	RoleDivisions []RoleDivision `json:"roleDivisions,omitempty"`
	DateCreated   string         `json:"dateCreated,omitempty"`
	Scope         []string       `json:"scope,omitempty"`
	State         string         `json:"state,omitempty"`
	DateToDelete  string         `json:"dateToDelete,omitempty"`
}

// --- Authorization ---

type Division struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type entityListing[T any] struct {
	Entities []T `json:"entities"`
}
