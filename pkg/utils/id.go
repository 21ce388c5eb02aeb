package utils

import (
	"log"
	"strings"

	"github.com/google/uuid"
)

// tempIDPrefix marks row ids assigned locally before the server confirms
// the real one.
const tempIDPrefix = "tmp_"

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// NewTempID generates a client-local row id used until the server assigns
// the stable one.
func NewTempID() string {
	return tempIDPrefix + GenerateID()
}

// IsTempID reports whether id was assigned locally by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
