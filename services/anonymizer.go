package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Display name prefixes for the two item kinds. The prefix plus the token
// is the only author identity a reader ever sees.
const (
	postAuthorPrefix    = "ポスト"
	commentAuthorPrefix = "返信"
)

// Anonymizer derives the pseudonymous author tokens rendered on timelines.
// Tokens are a pure function of item coordinates and the deployment secret,
// so re-rendering is stable across requests and restarts, while the same
// user appears under an unrelated token on every item. The secret is
// injected once at startup; rotating it re-keys every historical token.
type Anonymizer struct {
	secret string
}

// NewAnonymizer returns an Anonymizer keyed with the deployment secret.
func NewAnonymizer(secret string) *Anonymizer {
	return &Anonymizer{secret: secret}
}

// Pseudonym computes the token for one rendered item. The input is the
// kind tag and the item coordinates joined with "-", with the secret
// appended last; the token is the first 8 hex digits of the SHA-256 sum,
// uppercased. Tokens identify items, not users: no user attribute enters
// the hash.
func (a *Anonymizer) Pseudonym(kind string, parts ...uint) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	b.WriteByte('-')
	b.WriteString(a.secret)

	sum := sha256.Sum256([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}

// PostName returns the display name for a post's author.
func (a *Anonymizer) PostName(postID uint) string {
	return postAuthorPrefix + a.Pseudonym("post", postID)
}

// CommentName returns the display name for a comment's author. The parent
// post ID is part of the input, so even consecutive comment IDs land on
// unrelated tokens across threads.
func (a *Anonymizer) CommentName(postID, commentID uint) string {
	return commentAuthorPrefix + a.Pseudonym("comment", postID, commentID)
}
