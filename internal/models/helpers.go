package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CodePrefixMetro  = "METRO"
	CodePrefixReward = "RWD"
)

func GenerateID() string {
	return uuid.NewString()
}

// GenerateCode returns PREFIX-<epoch-ms>-<base36>, the random part taken from
// a version 4 UUID.
func GenerateCode(prefix string, now time.Time) string {
	id := uuid.New()
	suffix := new(big.Int).SetBytes(id[8:]).Text(36)
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), strings.ToUpper(suffix))
}

// ClampLimit returns def for a non-positive limit and caps it at max.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
