// Package models defines the room and chat data structures shared by all stores and transports.
package models

import (
	"sort"
	"time"
)

// Member is a room participant.
type Member struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	Role string `json:"role,omitempty" bson:"role,omitempty"`
}

// Room is a named chat channel with its participants and message history.
type Room struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Users []Member `json:"users"`
	Chats []Chat   `json:"chats"`
}

// HasMember reports whether userID is one of the room's participants.
func (r *Room) HasMember(userID string) bool {
	for _, u := range r.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Chat is a single message appended to a room.
type Chat struct {
	RoomID    string    `json:"roomId" bson:"roomId"`
	UserID    string    `json:"userId" bson:"userId"`
	Message   string    `json:"message" bson:"message"`
	Sentiment Sentiment `json:"sentiment" bson:"sentiment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ChatInput is what a caller supplies when appending a chat; the store assigns CreatedAt.
type ChatInput struct {
	UserID    string
	Message   string
	Sentiment Sentiment
}

// RoomInput holds the fields for creating a room.
type RoomInput struct {
	Title string   `json:"title"`
	Users []Member `json:"users"`
}

// RoomPatch is a partial room update. Nil fields are left untouched.
// Chats only change through append.
type RoomPatch struct {
	Title *string   `json:"title,omitempty"`
	Users *[]Member `json:"users,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p RoomPatch) IsEmpty() bool {
	return p.Title == nil && p.Users == nil
}

// SortChats orders chats by creation time, keeping append order for equal timestamps.
func SortChats(chats []Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})
}
