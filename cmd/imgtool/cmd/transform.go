package cmd

import (
	"fmt"

	"github.com/denismitr/imagebin/internal/media/manipulator"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var stripCmd = &cobra.Command{
	Use:   "strip <input> <output>",
	Short: "Removes embedded metadata from a JPEG or PNG file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readPayload(args[0])
		if err != nil {
			return err
		}

		clean, err := newManipulator().StripMetadata(p)
		if err != nil {
			return err
		}

		log.WithField("removed", p.Size()-clean.Size()).Info("metadata stripped")

		return writeOutput(args[1], clean.Data)
	},
}

var orientCmd = &cobra.Command{
	Use:   "orient <input> <output>",
	Short: "Rotates a JPEG upright according to its EXIF orientation and strips its metadata",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readPayload(args[0])
		if err != nil {
			return err
		}

		m := newManipulator()

		upright, err := m.NormalizeOrientation(p)
		if err != nil {
			if manipulator.IsSkippable(err) {
				log.WithError(err).Info("nothing to normalize, copying input")
				return writeOutput(args[1], p.Data)
			}

			return err
		}

		clean, err := m.StripMetadata(upright)
		if err != nil {
			return err
		}

		return writeOutput(args[1], clean.Data)
	},
}

var orientationCmd = &cobra.Command{
	Use:   "orientation <input>",
	Short: "Prints the EXIF orientation code of a JPEG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readPayload(args[0])
		if err != nil {
			return err
		}

		code, err := newManipulator().ReadOrientation(p)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

var lofiCmd = &cobra.Command{
	Use:   "lofi <input> <output>",
	Short: "Writes the low fidelity variant the proxy would serve",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readPayload(args[0])
		if err != nil {
			return err
		}

		v := newManipulator().Reduce(p.Data, p.Format)
		if !v.Reduced {
			log.Warn("no reduction applied, writing original bytes")
		}

		log.WithField("mime", v.Mime).
			WithField("original", p.Size()).
			WithField("variant", len(v.Data)).
			Info("low fidelity variant ready")

		if err := writeOutput(args[1], v.Data); err != nil {
			return errors.Wrap(err, "lofi")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(stripCmd)
	rootCmd.AddCommand(orientCmd)
	rootCmd.AddCommand(orientationCmd)
	rootCmd.AddCommand(lofiCmd)
}
