// Package event defines the read-only view of inbound chat-platform
// messages the relay consumes. The gateway collaborator owns the
// connection lifecycle and delivers already-parsed Message values.
package event

import "time"

// Channel type codes as reported by the platform.
const (
	ChannelTypeGuildText = 0
	ChannelTypeDM        = 1
)

// Message is one inbound message event from the platform gateway.
//
// GuildID and GuildName are empty for direct messages.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Author      Author       `json:"author"`
	ChannelID   string       `json:"channel_id"`
	ChannelName string       `json:"channel_name"`
	ChannelType int          `json:"channel_type"`
	GuildID     string       `json:"guild_id,omitempty"`
	GuildName   string       `json:"guild_name,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	MentionIDs  []string     `json:"mention_ids,omitempty"`
}

// Author identifies the sender of a message.
type Author struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Discriminator string `json:"discriminator,omitempty"`
	Bot           bool   `json:"bot"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// Attachment is one uploaded file on a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	Height      int    `json:"height,omitempty"`
	Width       int    `json:"width,omitempty"`
}

// Embed is one rich embed on a message.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DirectMessage reports whether the message arrived outside any guild.
func (m Message) DirectMessage() bool {
	return m.GuildID == ""
}
