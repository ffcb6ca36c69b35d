package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/client"
)

// errNoMatch gives a non-zero exit status when the faces differ.
var errNoMatch = errors.New("face does not match the stored embedding")

var embeddingPath string

var verifyCmd = &cobra.Command{
	Use:   "verify <image>",
	Short: "Verify the face in an image against a saved embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stored, err := client.ReadEmbedding(embeddingPath)
		if err != nil {
			return err
		}

		resp, err := newClient().Verify(cmd.Context(), args[0], stored)
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(resp.Message)
		}

		out := cmd.OutOrStdout()
		verdict := "NO"
		if resp.Match {
			verdict = "YES"
		}
		fmt.Fprintf(out, "Match:            %s\n", verdict)
		fmt.Fprintf(out, "Confidence:       %.2f%%\n", resp.Confidence)
		if resp.SimilarityScore != nil {
			fmt.Fprintf(out, "Similarity score: %.4f\n", *resp.SimilarityScore)
		}
		fmt.Fprintf(out, "Threshold used:   %v\n", resp.ThresholdUsed)

		if !resp.Match {
			return errNoMatch
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&embeddingPath, "embedding", "e", "embedding.json", "embedding file written by enroll")
	rootCmd.AddCommand(verifyCmd)
}
