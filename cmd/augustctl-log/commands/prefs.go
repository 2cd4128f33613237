package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/augustctl/augustctl-go/pkg/capture"
)

// RunPrefs decrypts the vendor app preferences file at path.
func RunPrefs(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}
	pt, err := capture.DecryptPreferences(data)
	if err != nil {
		return err
	}
	_, err = w.Write(pt)
	return err
}
