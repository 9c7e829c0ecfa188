package license

import (
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/errs"
)

// VerifyKey checks the license key offline: keys are compact JWTs signed by
// the vendor authority with ES256. This rejects garbage before any remote
// call; the hardware binding itself is still decided remotely.
func VerifyKey(key, publicKeyPEM string) error {
	if key == "" {
		return errors.WithStack(errs.InvalidKey)
	}
	if publicKeyPEM == "" {
		// No key pinned: defer entirely to the remote authority.
		return nil
	}
	pub, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return errors.Wrap(err, "bad license authority public key")
	}
	_, err = jwt.ParseWithClaims(key, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		return errors.WithStack(errs.InvalidKey)
	}
	return nil
}
