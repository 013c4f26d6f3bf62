package relay

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"fashfolio/internal/models"
)

// Payload limits.
const (
	MaxTrendProducts  = 200
	MaxScoringUsers   = 50
	MaxGoalLength     = 1000
	MaxAgentProducts  = 10
	MaxAgentQueryRune = 2000
)

// Agent personas.
const (
	CreativeMode  = "CREATIVE_MODE"
	StrategicMode = "STRATEGIC_MODE"
)

// TrendPayload builds the trend input from the catalog. Only the first
// MaxTrendProducts entries are sent.
func TrendPayload(products []models.Product) []models.ProductSnapshot {
	if len(products) > MaxTrendProducts {
		products = products[:MaxTrendProducts]
	}
	out := make([]models.ProductSnapshot, len(products))
	for i := range products {
		out[i] = products[i].Snapshot()
	}
	return out
}

// TrendScore is one row of the trend script's reply.
type TrendScore struct {
	ID         string  `json:"id"`
	TrendScore float64 `json:"trendScore"`
}

// ScoringPayload validates a user list for the scoring script.
func ScoringPayload(users []models.UserSnapshot) ([]models.UserSnapshot, error) {
	if len(users) > MaxScoringUsers {
		return nil, models.NewValidationError(fmt.Sprintf("at most %d users can be scored at once", MaxScoringUsers))
	}
	out := make([]models.UserSnapshot, len(users))
	for i, u := range users {
		if strings.TrimSpace(u.ExternalID) == "" {
			return nil, models.NewValidationError(fmt.Sprintf("user %d is missing externalId", i))
		}
		if u.Followers == nil {
			u.Followers = []string{}
		}
		out[i] = u
	}
	return out, nil
}

// UserSnapshots projects stored users onto the scoring whitelist.
func UserSnapshots(users []models.User) []models.UserSnapshot {
	out := make([]models.UserSnapshot, len(users))
	for i := range users {
		followers := users[i].Followers
		if followers == nil {
			followers = []string{}
		}
		out[i] = models.UserSnapshot{
			ExternalID: users[i].ExternalID,
			Username:   users[i].Username,
			Email:      users[i].Email,
			Followers:  followers,
		}
	}
	return out
}

// Seyna is the command-center request.
type Seyna struct {
	Goal string `json:"goal"`
}

// SeynaPayload validates goal.
func SeynaPayload(goal string) (Seyna, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return Seyna{}, models.NewValidationError("goal is required")
	}
	if utf8.RuneCountInString(goal) > MaxGoalLength {
		return Seyna{}, models.NewValidationError(fmt.Sprintf("goal must be at most %d characters", MaxGoalLength))
	}
	return Seyna{Goal: goal}, nil
}

// SeynaReport is the command-center reply.
type SeynaReport struct {
	SeynaStatus string       `json:"seyna_status"`
	TeamReports []TeamReport `json:"team_reports"`
}

// TeamReport is one agent's contribution to a SeynaReport.
type TeamReport struct {
	Agent  string          `json:"agent"`
	Role   string          `json:"role"`
	Output json.RawMessage `json:"output"`
}

// Agent is the Pixie chat request.
type Agent struct {
	Query    string                   `json:"query"`
	Products []models.ProductSnapshot `json:"products"`
	Context  string                   `json:"context"`
}

// AgentPayload validates the chat message and attaches at most
// MaxAgentProducts snapshots. Unknown personas fall back to CreativeMode.
func AgentPayload(query, mode string, products []models.Product) (Agent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Agent{}, models.NewValidationError("message is required")
	}
	if utf8.RuneCountInString(query) > MaxAgentQueryRune {
		return Agent{}, models.NewValidationError(fmt.Sprintf("message must be at most %d characters", MaxAgentQueryRune))
	}
	if mode != StrategicMode {
		mode = CreativeMode
	}
	if len(products) > MaxAgentProducts {
		products = products[:MaxAgentProducts]
	}
	snapshots := make([]models.ProductSnapshot, len(products))
	for i := range products {
		snapshots[i] = products[i].Snapshot()
	}
	return Agent{Query: query, Products: snapshots, Context: mode}, nil
}

// AgentReply is the Pixie chat reply.
type AgentReply struct {
	Response string `json:"response"`
}

// Pixel is the vision tagging request.
type Pixel struct {
	ImageURL string `json:"imageUrl"`
}

// PixelPayload requires an absolute http(s) image URL.
func PixelPayload(imageURL string) (Pixel, error) {
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Pixel{}, models.NewValidationError("product image must be an absolute http(s) URL")
	}
	return Pixel{ImageURL: u.String()}, nil
}

// PixelReport is the vision tagging reply.
type PixelReport struct {
	ColorHex     string   `json:"color_hex"`
	Fabric       string   `json:"fabric"`
	StyleTags    []string `json:"style_tags"`
	VisualRating float64  `json:"visual_rating"`
	Error        string   `json:"error,omitempty"`
	RawOutput    string   `json:"raw_output,omitempty"`
}

// Tags converts the report to persisted vision attributes.
func (p PixelReport) Tags() models.VisionTags {
	tags := p.StyleTags
	if tags == nil {
		tags = []string{}
	}
	return models.VisionTags{
		AITags:        tags,
		VisualScore:   p.VisualRating,
		DominantColor: p.ColorHex,
		FabricType:    p.Fabric,
	}
}
