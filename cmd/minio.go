package cmd

import (
	"fmt"
	"log"

	"MoisHub/config"
	"MoisHub/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理曲目文件存储桶，支持列出文件、按类别统计、删除用户目录等操作。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewAdminClient(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatalf("创建MinIO客户端失败: %v", err)
		}

		switch {
		case minioDelete:
			if minioPrefix == "" {
				log.Fatal("删除操作需要指定目录前缀")
			}
			fmt.Printf("\n删除目录: %s\n", minioPrefix)
			if err := client.DeleteDirectory(minioPrefix); err != nil {
				log.Fatalf("删除目录失败: %v", err)
			}
		case minioStats:
			if err := client.PrintBucketStats(); err != nil {
				log.Fatalf("获取存储桶统计信息失败: %v", err)
			}
		default:
			fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)
			if err := client.ListObjects(minioPrefix); err != nil {
				log.Fatalf("列出文件失败: %v", err)
			}
		}

		fmt.Println("\nMinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示存储桶统计信息")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定目录及其下的所有文件")

	minioCmd.Example = `  # 列出所有文件
  moishub minio

  # 查看某个用户的音频文件
  moishub minio -p "audio/42/"

  # 显示存储桶统计信息
  moishub minio -s

  # 删除某个用户的全部封面
  moishub minio -d -p "covers/42/"`
}
