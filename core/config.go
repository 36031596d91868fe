package core

import (
	"github.com/pkg/errors"

	"github.com/restakelabs/resolver/keys"
	"github.com/restakelabs/resolver/types"
)

// configPayloadLength is admin key plus bump byte.
const configPayloadLength = types.PublicKeyLength + 1

// Config is the program-wide configuration record. It is created exactly
// once via the InitializeConfig operation and never deleted. The admin is the
// sole identity permitted to mutate program-level settings.
type Config struct {
	// Admin is the program administrator.
	Admin types.PublicKey

	// Bump is the disambiguation byte of the record address derivation.
	Bump uint8
}

// NewConfig builds the program configuration record.
func NewConfig(admin types.PublicKey, bump uint8) *Config {
	return &Config{Admin: admin, Bump: bump}
}

// ConfigSeeds are the derivation seeds of the singleton config record.
func ConfigSeeds() [][]byte {
	return [][]byte{[]byte("config")}
}

// FindConfigAddress derives the canonical address of the config record.
func FindConfigAddress(programID types.PublicKey) (types.PublicKey, uint8, error) {
	return keys.Derive(programID, ConfigSeeds()...)
}

// CheckAdmin verifies the stored admin is among the request signers.
func (c *Config) CheckAdmin(signers []types.PublicKey) error {
	if !signedBy(signers, c.Admin) {
		return errors.Wrap(ErrUnauthorized, "config admin did not sign")
	}
	return nil
}

// Marshal encodes the record with its discriminator and owner envelope.
func (c *Config) Marshal(owner types.PublicKey) []byte {
	payload := make([]byte, 0, configPayloadLength)
	payload = append(payload, c.Admin[:]...)
	payload = append(payload, c.Bump)
	return wrapRecord(ConfigDiscriminator, owner, payload)
}

// UnmarshalConfig decodes and validates an encoded config record.
func UnmarshalConfig(owner types.PublicKey, data []byte) (*Config, error) {
	payload, err := unwrapRecord(ConfigDiscriminator, owner, data, configPayloadLength)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	c.Admin, payload = readPublicKey(payload)
	c.Bump = payload[0]
	return c, nil
}
