// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/backend"
)

// GlobalFlagsValidator checks combinations no single flag validator can see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.String("ext-in") != "" && c.String("ext-in") == c.String("ext-out") {
		return errors.New("--ext-in and --ext-out must differ")
	}
	if c.String("store") == backend.KindS3 && c.String("s3-bucket") == "" {
		return errors.New("--store s3 requires --s3-bucket")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

// ExtensionValidator rejects extensions that would not survive being joined
// to a base name with ".".
func ExtensionValidator(value any) error {
	s := value.(string)
	if s == "" || strings.ContainsAny(s, `./\`) {
		return fmt.Errorf("invalid extension %q", s)
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	if !slices.Contains(validOutputFlagValues, value.(string)) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

func StoreValidator(value any) error {
	if !slices.Contains(backend.Kinds, strings.ToLower(value.(string))) {
		return fmt.Errorf("must be one of %v", backend.Kinds)
	}
	return nil
}
