// internal/service/identity/handle.go

package identity

import (
	"fmt"
	"math/rand"
	"strings"
)

var adjectives = []string{
	"silver", "golden", "swift", "quiet", "brave", "lucky",
	"mellow", "bright", "wild", "gentle", "clever", "sunny",
}

var nouns = []string{
	"starfish", "otter", "sparrow", "panther", "fox", "owl",
	"tiger", "koala", "dolphin", "falcon", "badger", "lynx",
}

// generateHandle produces a display handle like "@SilverOtter42".
// Uniqueness is the caller's concern.
func generateHandle() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	number := rand.Intn(90) + 10

	return fmt.Sprintf("@%s%s%d", capitalize(adj), capitalize(noun), number)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
