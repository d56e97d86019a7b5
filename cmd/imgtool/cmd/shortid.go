package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/denismitr/imagebin/internal/media"
	"github.com/denismitr/imagebin/internal/registry/badgerregistry"
	"github.com/denismitr/imagebin/internal/shortid"
	"github.com/spf13/cobra"
)

var shortidCmd = &cobra.Command{
	Use:   "shortid <seed>",
	Short: "Allocates the short ID a seed would receive",
	Long: "Allocates the short ID a seed would receive. Without --badger every " +
		"candidate is free; with it, candidates are checked against a badger registry.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		length, _ := cmd.Flags().GetInt("length")
		badgerPath, _ := cmd.Flags().GetString("badger")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		isTaken := func(context.Context, media.ShortID) (bool, error) { return false, nil }

		if badgerPath != "" {
			r, err := badgerregistry.Open(badgerPath)
			if err != nil {
				return err
			}
			defer r.Close()

			isTaken = r.ShortIDExists
		}

		sid, err := shortid.New(shortid.Config{}).Allocate(ctx, args[0], length, isTaken)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), sid)
		return nil
	},
}

func init() {
	shortidCmd.Flags().Int("length", media.DefaultShortIDLength, "initial short ID length")
	shortidCmd.Flags().String("badger", "", "path of a badger registry to check candidates against")
	shortidCmd.Flags().Duration("timeout", 5*time.Second, "allocation timeout")
	rootCmd.AddCommand(shortidCmd)
}
