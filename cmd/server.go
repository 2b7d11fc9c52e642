package cmd

import (
	"MoisHub/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动MoisHub服务器",
	Long:  `启动音乐分享社区的HTTP服务器，提供上传、评论、审核等API服务`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
