// Package payload converts inbound platform events into the canonical JSON
// wire format posted to webhook destinations.
package payload

import (
	"time"

	"hookbridge/pkg/event"
	"hookbridge/pkg/trigger"
)

const (
	EventTypeMessageCreate = "message_create"
	EventTypeTest          = "test"

	// RelayVersion is the wire schema version stamped into relay.version.
	RelayVersion = 1

	// RelaySource identifies the platform the event originated from.
	RelaySource = "discord"

	// DMChannelName is the sentinel channel name for direct messages.
	DMChannelName = "dm"
)

// Payload is the outbound wire document. Optional fields are pointers so
// absent values serialize as explicit null, never as an omitted key.
type Payload struct {
	EventType string  `json:"event_type"`
	Relay     Relay   `json:"relay"`
	Timestamp string  `json:"timestamp"`
	Guild     *Guild  `json:"guild"`
	Channel   Channel `json:"channel"`
	Message   Message `json:"message"`
	Author    Author  `json:"author"`
}

// Relay carries provenance and trigger metadata for the receiver.
type Relay struct {
	Version     int    `json:"version"`
	Source      string `json:"source"`
	BotCalled   bool   `json:"bot_called"`
	MatchedRule string `json:"matched_rule"`
}

// Guild identifies the originating server; null for direct messages.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel identifies the originating channel.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// Message is the normalized message body.
type Message struct {
	ID           string       `json:"id"`
	Content      string       `json:"content"`
	CleanContent string       `json:"clean_content"`
	CreatedAt    string       `json:"created_at"`
	Attachments  []Attachment `json:"attachments"`
	Embeds       []Embed      `json:"embeds"`
}

// Attachment mirrors one uploaded file.
type Attachment struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename"`
	URL         string  `json:"url"`
	ContentType *string `json:"content_type"`
	Size        int     `json:"size"`
	Height      *int    `json:"height"`
	Width       *int    `json:"width"`
}

// Embed mirrors one rich embed.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	URL         string       `json:"url"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []EmbedField `json:"fields"`
}

// EmbedField mirrors one embed field.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Author identifies the message sender.
type Author struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	DisplayName   string  `json:"display_name"`
	Discriminator *string `json:"discriminator"`
	Bot           bool    `json:"bot"`
	Avatar        *string `json:"avatar"`
}

// Normalize maps an inbound message into the wire payload, stamping the
// current time as the relay timestamp.
func Normalize(msg event.Message, eventType string, result trigger.Result) Payload {
	return NormalizeAt(msg, eventType, result, time.Now().UTC())
}

// NormalizeAt is Normalize with an explicit relay timestamp. Deterministic,
// pure, no I/O.
func NormalizeAt(msg event.Message, eventType string, result trigger.Result, at time.Time) Payload {
	payload := Payload{
		EventType: eventType,
		Relay: Relay{
			Version:     RelayVersion,
			Source:      RelaySource,
			BotCalled:   result.Called,
			MatchedRule: result.Rule,
		},
		Timestamp: at.UTC().Format(time.RFC3339),
		Channel: Channel{
			ID:   msg.ChannelID,
			Name: msg.ChannelName,
			Type: msg.ChannelType,
		},
		Message: Message{
			ID:           msg.ID,
			Content:      msg.Content,
			CleanContent: result.CleanContent,
			CreatedAt:    msg.CreatedAt.UTC().Format(time.RFC3339),
			Attachments:  normalizeAttachments(msg.Attachments),
			Embeds:       normalizeEmbeds(msg.Embeds),
		},
		Author: Author{
			ID:            msg.Author.ID,
			Username:      msg.Author.Username,
			DisplayName:   msg.Author.DisplayName,
			Discriminator: nullableString(msg.Author.Discriminator),
			Bot:           msg.Author.Bot,
			Avatar:        nullableString(msg.Author.AvatarURL),
		},
	}

	if msg.DirectMessage() {
		payload.Channel.Name = DMChannelName
	} else {
		payload.Guild = &Guild{ID: msg.GuildID, Name: msg.GuildName}
	}

	return payload
}

func normalizeAttachments(attachments []event.Attachment) []Attachment {
	normalized := make([]Attachment, 0, len(attachments))
	for _, attachment := range attachments {
		normalized = append(normalized, Attachment{
			ID:          attachment.ID,
			Filename:    attachment.Filename,
			URL:         attachment.URL,
			ContentType: nullableString(attachment.ContentType),
			Size:        attachment.Size,
			Height:      nullableInt(attachment.Height),
			Width:       nullableInt(attachment.Width),
		})
	}

	return normalized
}

func normalizeEmbeds(embeds []event.Embed) []Embed {
	normalized := make([]Embed, 0, len(embeds))
	for _, embed := range embeds {
		fields := make([]EmbedField, 0, len(embed.Fields))
		for _, field := range embed.Fields {
			fields = append(fields, EmbedField{Name: field.Name, Value: field.Value, Inline: field.Inline})
		}
		normalized = append(normalized, Embed{
			Title:       embed.Title,
			Description: embed.Description,
			URL:         embed.URL,
			Color:       embed.Color,
			Timestamp:   embed.Timestamp,
			Fields:      fields,
		})
	}

	return normalized
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}

func nullableInt(value int) *int {
	if value == 0 {
		return nil
	}

	return &value
}
