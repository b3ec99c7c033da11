package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"alumnet/domain"
)

// CustomClaims defines the structure of the data stored inside the JWT.
// The identity system issues tokens; this core only verifies them and
// trusts the participant identifier they carry.
type CustomClaims struct {
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

// Verifier validates tokens signed with the platform's shared secret.
type Verifier struct {
	key []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{key: []byte(secret)}
}

// Verify parses the token, checks its signature and expiration, and
// returns the verified participant identifier.
func (v Verifier) Verify(tokenString string) (domain.ParticipantID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.ParticipantID == "" {
		return "", jwt.ErrSignatureInvalid
	}
	return domain.ParticipantID(claims.ParticipantID), nil
}

// GenerateToken creates a signed JWT for a participant. Token issuance
// belongs to the identity system; this helper exists for local runs and
// tests.
func GenerateToken(secret string, participant domain.ParticipantID, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		ParticipantID: string(participant),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "alumnet",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
