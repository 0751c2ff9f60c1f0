package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const envPrefix = "ADDRSIM_"

// envName maps a flag name to the environment variable that provides its
// default, e.g. mm-size to ADDRSIM_MM_SIZE.
func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// loadEnvFile loads variables from a dotenv file. Variables that are already
// set in the environment win. A missing file is only an error if the user
// asked for it explicitly.
func loadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}

	err = godotenv.Load(path)
	if err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}

	return nil
}

// applyEnv sets every flag that is not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		err := f.Value.Set(value)
		if err != nil {
			errs = append(errs,
				fmt.Errorf("invalid %s=%q: %w", envName(f.Name), value, err))
		}
	})

	return errors.Join(errs...)
}
