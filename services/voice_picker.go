package services

import (
	"crypto/sha1"
	"encoding/binary"
	"strings"
)

// Stock ElevenLabs voice IDs used when a script speaker has no cast entry.
var stockVoices = []string{
	"EXAVITQu4vr4xnSDxMaL", // Rachel
	"21m00Tcm4TlvDq8ikWAM", // Domi
	"AZnzlk1XvdvUeBnXmlld", // Bella
	"ErXwobaYiN019PkySvjV", // Elli
	"MF3mGyEYCl7XYWbV9V6O", // Dorothy
	"pNInz6obpgDQGcFmaJgB", // Adam
	"TxGEqnHWrfWFTfGW9XjX", // Antoni
	"VR6AewLTigWG4xSOukaG", // Josh
	"yoZ06aMxZJJ28mfd3POQ", // Arnold
	"bVMeCyTHy58xNoL34h3p", // Clyde
}

// PickFallbackVoice returns a stock voice ID for a speaker name. The same
// name always maps to the same voice so an episode stays consistent across
// regenerations.
func PickFallbackVoice(speaker string) string {
	if len(stockVoices) == 0 {
		return "pNInz6obpgDQGcFmaJgB" // Adam
	}
	h := sha1.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(speaker))))
	sum := h.Sum(nil)
	idx := binary.BigEndian.Uint16(sum) % uint16(len(stockVoices))
	return stockVoices[idx]
}
