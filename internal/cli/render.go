package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	imagepkg "github.com/youruser/rankcard/internal/image"
	"github.com/youruser/rankcard/internal/util"
)

func newRenderCmd() *cobra.Command {
	var (
		req imagepkg.RenderRequest
		out string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one rank card to a PNG file",
		Example: `  rankcard render --nickname Rin --rank legend -o rin.png
  rankcard render --avatar https://example.com/me.png --rank "mythic glory"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, compositor, err := setup()
			if err != nil {
				return err
			}
			png, err := compositor.Render(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := util.WriteFile(out, png); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Info("wrote card", "path", out, "bytes", len(png))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.AvatarURL, "avatar", "", "avatar image URL")
	cmd.Flags().StringVar(&req.Nickname, "nickname", "", "nickname (default "+imagepkg.DefaultNickname+")")
	cmd.Flags().StringVar(&req.RawRank, "rank", "", "rank name in English or Japanese")
	cmd.Flags().StringVarP(&out, "out", "o", "rankcard.png", "output file")
	return cmd
}
