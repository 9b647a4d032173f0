package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateReference returns a unique journal reference such as "WD-3F9A1C0B22D4-42".
func GenerateReference(prefix string, userID int64) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%d", prefix, id[:12], userID)
}
