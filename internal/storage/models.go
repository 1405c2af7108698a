package storage

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Bio           string    `json:"bio" db:"bio"`
	University    string    `json:"university" db:"university"`
	City          string    `json:"city" db:"city"`
	Role          string    `json:"role" db:"role"`
	AvatarURL     string    `json:"avatar_url" db:"avatar_url"`
	TeachSkills   []string  `json:"teach_skills" db:"teach_skills"`
	LearnSkills   []string  `json:"learn_skills" db:"learn_skills"`
	Rating        float64   `json:"rating" db:"rating"`
	ReviewsCount  int       `json:"reviews_count" db:"reviews_count"`
	SessionsCount int       `json:"sessions_count" db:"sessions_count"`
	Blocked       bool      `json:"blocked" db:"blocked"`
	ReportCount   int       `json:"report_count" db:"report_count"`
	IsVerified    bool      `json:"is_verified" db:"is_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile is the subset of User embedded in conversation and match
// responses.
type PublicProfile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url"`
	University string    `json:"university"`
	City       string    `json:"city"`
	Rating     float64   `json:"rating"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		AvatarURL:  u.AvatarURL,
		University: u.University,
		City:       u.City,
		Rating:     u.Rating,
	}
}

type Session struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	RequesterID        uuid.UUID `json:"requester_id" db:"requester_id"`
	ProviderID         uuid.UUID `json:"provider_id" db:"provider_id"`
	Skill              string    `json:"skill" db:"skill"`
	Date               string    `json:"date" db:"scheduled_date"`
	Time               string    `json:"time" db:"scheduled_time"`
	Status             string    `json:"status" db:"status"`
	RequesterConfirmed bool      `json:"requester_confirmed" db:"requester_confirmed"`
	ProviderConfirmed  bool      `json:"provider_confirmed" db:"provider_confirmed"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Partner returns the other participant, or uuid.Nil when userID is not a
// participant at all.
func (s *Session) Partner(userID uuid.UUID) uuid.UUID {
	switch userID {
	case s.RequesterID:
		return s.ProviderID
	case s.ProviderID:
		return s.RequesterID
	}
	return uuid.Nil
}

func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return userID == s.RequesterID || userID == s.ProviderID
}

type Message struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SenderID         uuid.UUID  `json:"sender_id" db:"sender_id"`
	ReceiverID       uuid.UUID  `json:"receiver_id" db:"receiver_id"`
	Type             string     `json:"type" db:"type"`
	Content          string     `json:"content" db:"content"`
	FileURL          string     `json:"file_url,omitempty" db:"file_url"`
	RelatedSessionID *uuid.UUID `json:"related_session_id,omitempty" db:"related_session_id"`
	IsRead           bool       `json:"is_read" db:"is_read"`
	IsEdited         bool       `json:"is_edited" db:"is_edited"`
	// Seq orders messages that share a created_at timestamp.
	Seq       int64     `json:"-" db:"seq"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ConversationSummary is derived per request, never persisted.
type ConversationSummary struct {
	Partner     PublicProfile `json:"partner"`
	LastMessage Message       `json:"last_message"`
	UnreadCount int           `json:"unread_count"`
	Online      bool          `json:"online"`
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID uuid.UUID `json:"session_id" db:"session_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	SubjectID uuid.UUID `json:"subject_id" db:"subject_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Community struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatorID   uuid.UUID `json:"creator_id" db:"creator_id"`
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Session statuses
const (
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionCancelled = "cancelled"
	SessionCompleted = "completed"
)

// Message types
const (
	MessageText         = "text"
	MessageImage        = "image"
	MessageVoice        = "voice"
	MessageFile         = "file"
	MessageBarterOffer  = "barter_offer"
	MessageBarterStatus = "barter_status"
)

// User roles
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)
