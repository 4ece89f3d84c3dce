// Package minecraft holds small helpers for Minecraft-flavored text and
// identity handling shared by the probe, console and detection code.
package minecraft

import (
	"crypto/md5"
	"regexp"

	"github.com/google/uuid"
)

var (
	colorCodeRe = regexp.MustCompile(`§[0-9a-fk-orA-FK-OR]`)
	playerRe    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	addressRe   = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,6}(?::\d+)?$|^(?:[0-9]{1,3}\.){3}[0-9]{1,3}(?::\d+)?$`)
)

// StripColorCodes removes Minecraft § formatting codes from text
func StripColorCodes(text string) string {
	return colorCodeRe.ReplaceAllString(text, "")
}

// IsValidPlayerName reports whether a nick is a legal Minecraft player name
func IsValidPlayerName(name string) bool {
	if len(name) < 3 || len(name) > 16 {
		return false
	}
	return playerRe.MatchString(name)
}

// IsValidAddress reports whether an address looks like a hostname or IPv4
// address with an optional port
func IsValidAddress(address string) bool {
	return addressRe.MatchString(address)
}

// OfflineUUID derives the deterministic offline-mode identity token for a
// player name: the MD5 of "OfflinePlayer:<name>" with UUIDv3 version and
// RFC 4122 variant bits. Servers running without authentication assign
// exactly this token, which is what the classification check relies on.
func OfflineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80

	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		return ""
	}
	return id.String()
}
