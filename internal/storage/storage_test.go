package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidKey(t *testing.T) {
	// valid keys consist of image ID, slugged name and a known extension
	validKeys := []string{
		"6028336099d807ec425eeed2/original.png",
		"6028336099d807ec425eeed2/summer-trip-2020.jpg",
		"0b6e1a7c-2f4d-4c1e-9a51-0f3c1a2b3c4d/scan.bmp",
	}
	// invalid keys are anything that does not match all above criteria
	invalidKeys := []string{
		"original.jpg",
		"foo",
		"",
		"../6028336099d807ec425eeed2/original.jpg",
		"6028336099d807ec425eeed2/../original.jpg",
		"6028336099d807ec425eeed2/original.exe",
	}

	for _, k := range validKeys {
		t.Run(fmt.Sprintf("valid key %s", k), func(t *testing.T) {
			assert.True(t, IsValidKey(k))
		})
	}

	for _, k := range invalidKeys {
		t.Run(fmt.Sprintf("invalid key %s", k), func(t *testing.T) {
			assert.False(t, IsValidKey(k))
		})
	}
}
