package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"MoisHub/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
	publicBase  string
)

// InitMinio 初始化 MinIO 客户端并确保存储桶存在
func InitMinio(cfg *config.Config) error {
	log.Printf("正在连接 MinIO 服务器: %s, Bucket: %s", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Printf("成功创建存储桶: %s", cfg.MinioBucket)
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	publicBase = cfg.MinioPublicURL
	if publicBase == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	log.Println("MinIO 客户端初始化成功")
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadObject 上传对象到存储桶
func UploadObject(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}
	_, err := minioClient.PutObject(ctx, bucketName, objectPath, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectPath, err)
	}
	return nil
}

// RemoveObject 删除对象，尽力而为，调用方通常忽略错误
func RemoveObject(ctx context.Context, objectPath string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	err := minioClient.RemoveObject(ctx, bucketName, objectPath, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectPath, err)
	}
	return nil
}

// GetObject 返回对象的数据流，用于 /files/ 代理路由
func GetObject(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	obj, err := minioClient.GetObject(ctx, bucketName, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	return obj, nil
}

// PublicURL 返回对象的公开访问URL
func PublicURL(objectPath string) string {
	return publicBase + "/" + objectPath
}

// ObjectPathFromURL 从公开URL反推对象路径，失败时返回空串
// 删除曲目时用它定位待清理的文件
func ObjectPathFromURL(fileURL string) string {
	prefix := publicBase + "/"
	if len(fileURL) > len(prefix) && fileURL[:len(prefix)] == prefix {
		return fileURL[len(prefix):]
	}
	return ""
}
