package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/client"
)

var enrollOut string

var enrollCmd = &cobra.Command{
	Use:   "enroll <image>",
	Short: "Enroll the face in an image and save its embedding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newClient().Enroll(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !resp.Success {
			return errors.New(resp.Message)
		}

		fmt.Fprintln(out, "Enrollment successful")
		if resp.QualityScore != nil {
			fmt.Fprintf(out, "  Quality score:       %.2f/100\n", *resp.QualityScore)
		}
		if resp.FaceSize != nil {
			fmt.Fprintf(out, "  Face size:           %dx%dpx\n", resp.FaceSize.Width, resp.FaceSize.Height)
		}
		fmt.Fprintf(out, "  Embedding dimension: %d\n", len(resp.Embedding))

		if err := client.WriteEmbedding(enrollOut, resp.Embedding); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Embedding saved to:  %s\n", enrollOut)
		return nil
	},
}

func init() {
	enrollCmd.Flags().StringVarP(&enrollOut, "out", "o", "embedding.json", "file to write the embedding to")
	rootCmd.AddCommand(enrollCmd)
}
