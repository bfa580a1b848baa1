package authz

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

// Claims are the JWT claims carried by an owner proof. The subject claim
// is the account the identity capability vouches for.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 owner-proof tokens issued by the identity
// capability and compares the proven subject against a plan owner.
type JWTVerifier struct {
	signingKey []byte
	issuer     string
}

func NewJWTVerifier(signingKey string, issuer string) *JWTVerifier {
	return &JWTVerifier{signingKey: []byte(signingKey), issuer: issuer}
}

// VerifyOwner implements OwnerVerifier. Fails closed: any parse,
// signature, expiry, or subject mismatch is CodeUnauthorized.
func (v *JWTVerifier) VerifyOwner(ctx context.Context, proof Proof, owner domain.AccountID) error {
	subject, err := v.Resolve(ctx, proof)
	if err != nil {
		return err
	}
	if subject != owner {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the plan owner")
	}
	return nil
}

// Resolve implements IdentityResolver.
func (v *JWTVerifier) Resolve(_ context.Context, proof Proof) (domain.AccountID, error) {
	if proof.Token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "owner proof is required")
	}

	parsed, err := jwt.ParseWithClaims(proof.Token, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid owner proof")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "owner proof carries no subject")
	}
	return domain.AccountID(claims.Subject), nil
}

// Sign mints an owner proof for account, valid for expiresIn. Used by dev
// tooling and tests; production proofs come from the identity capability.
func (v *JWTVerifier) Sign(account domain.AccountID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(v.signingKey)
}
