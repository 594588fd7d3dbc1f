package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/external-adapters/gpg"
)

// ManifestGuard checks a dependency manifest against a pinned digest and a
// detached OpenPGP signature before anything is installed from it
type ManifestGuard struct {
	verifier *gpg.Verifier
}

// NewManifestGuard creates a new manifest guard
func NewManifestGuard() *ManifestGuard {
	return &ManifestGuard{verifier: gpg.NewVerifier()}
}

// VerifyManifest runs the checks configured in cfg. With none configured it succeeds.
func (g *ManifestGuard) VerifyManifest(ctx context.Context, cfg entities.DependencyConfig) error {
	if cfg.ManifestSHA256 != "" {
		if err := verifyDigest(cfg.Manifest, cfg.ManifestSHA256); err != nil {
			return err
		}
	}

	if cfg.Signature != "" {
		if err := g.verifySignature(ctx, cfg); err != nil {
			return err
		}
	}

	return nil
}

func (g *ManifestGuard) verifySignature(ctx context.Context, cfg entities.DependencyConfig) error {
	if cfg.Keyring == "" {
		return fmt.Errorf("manifest signature configured without a keyring")
	}

	g.verifier.ClearKeyring()

	var err error
	if strings.HasPrefix(cfg.Keyring, "https://") || strings.HasPrefix(cfg.Keyring, "http://") {
		err = g.verifier.ImportKeysFromURL(ctx, cfg.Keyring)
	} else {
		err = g.verifier.ImportKeyFromFile(cfg.Keyring)
	}
	if err != nil {
		return fmt.Errorf("failed to load manifest keyring: %w", err)
	}

	if err := g.verifier.VerifySignatureFromFile(cfg.Manifest, cfg.Signature); err != nil {
		return fmt.Errorf("manifest %s: %w", cfg.Manifest, err)
	}
	return nil
}

// ManifestDigest returns the hex SHA-256 of the file at path
func ManifestDigest(path string) (string, error) {
	//nolint:gosec // G304: manifest path comes from launcher configuration
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open manifest: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash manifest: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func verifyDigest(path, expected string) error {
	actual, err := ManifestDigest(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("manifest %s checksum mismatch: expected %s, got %s", path, expected, actual)
	}
	return nil
}
