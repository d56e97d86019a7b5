package cmd

import (
	"os"

	"github.com/denismitr/imagebin/cmd/initialize"
	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = initialize.Logger()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "imgtool",
	Short:         "Runs the imagebin ingestion and serving transforms on local files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("failed to execute command")
		os.Exit(1)
	}
}

func newManipulator() *manipulator.Manipulator {
	return manipulator.New(manipulator.Config{}, log)
}

// readPayload loads a local file, sniffing its format from the content
func readPayload(path string) (*media.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}

	format, err := media.Sniff(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	return media.NewPayload(data, format), nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, _ := cmd.Flags().GetString("log-level")
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			return err
		}

		log.SetLevel(level)
		return nil
	}
}
