package storage

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// AdminClient 运维用的 MinIO 封装，供 minio 子命令使用
// 与服务进程内的全局客户端相互独立
type AdminClient struct {
	client     *minio.Client
	bucketName string
}

// NewAdminClient 创建一个运维客户端
func NewAdminClient(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*AdminClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	return &AdminClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// formatSize 格式化文件大小
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// ListObjects 按前缀列出存储桶中的对象
func (m *AdminClient) ListObjects(prefix string) error {
	ctx := context.Background()

	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶是否存在失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶 %s 不存在", m.bucketName)
	}

	stats := BucketStats{}
	var objects []minio.ObjectInfo

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			log.Printf("列出对象时出错: %v", object.Err)
			continue
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, object)
	}

	fmt.Printf("存储桶信息:\n")
	fmt.Printf("名称: %s\n", m.bucketName)
	fmt.Printf("总大小: %s\n", formatSize(stats.TotalSize))
	fmt.Printf("对象数量: %d\n", stats.TotalObjects)
	fmt.Printf("最后修改时间: %s\n", stats.LastModified.Format(time.RFC3339))
	fmt.Println("\n文件列表:")

	for _, obj := range objects {
		fmt.Printf("文件名: %s, 大小: %s, 最后修改时间: %s\n",
			obj.Key, formatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
	}

	return nil
}

// PrintBucketStats 打印按类别统计的存储桶信息
// 音频对象位于 audio/{userID}/，封面位于 covers/{userID}/
func (m *AdminClient) PrintBucketStats() error {
	ctx := context.Background()

	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶是否存在失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶 %s 不存在", m.bucketName)
	}

	categorySize := make(map[string]int64)
	categoryCount := make(map[string]int64)
	userObjects := make(map[string]int64)
	var totalSize int64
	var objectCount int64

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{Recursive: true})
	for object := range objectCh {
		if object.Err != nil {
			continue
		}

		parts := strings.SplitN(object.Key, "/", 3)
		category := "other"
		if len(parts) >= 1 && (parts[0] == "audio" || parts[0] == "covers") {
			category = parts[0]
			if len(parts) >= 2 {
				userObjects[parts[1]]++
			}
		}

		categorySize[category] += object.Size
		categoryCount[category]++
		totalSize += object.Size
		objectCount++
	}

	fmt.Printf("\n=== 存储桶统计信息 ===\n")
	fmt.Printf("存储桶名称: %s\n", m.bucketName)
	fmt.Printf("总大小: %s\n", formatSize(totalSize))
	fmt.Printf("对象总数: %d\n", objectCount)

	fmt.Printf("\n按类别统计:\n")
	for _, category := range []string{"audio", "covers", "other"} {
		if categoryCount[category] == 0 {
			continue
		}
		fmt.Printf("%s: %d 个文件, %s\n", category, categoryCount[category], formatSize(categorySize[category]))
	}

	// 按上传量排序的用户目录
	var users []string
	for user := range userObjects {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return userObjects[users[i]] > userObjects[users[j]]
	})

	fmt.Printf("\n用户目录统计:\n")
	for _, user := range users {
		fmt.Printf("用户 %s: %d 个对象\n", user, userObjects[user])
	}

	return nil
}

// DeleteDirectory 递归删除指定前缀下的所有对象
// 删除用户全部上传时传 audio/{userID}/ 或 covers/{userID}/
func (m *AdminClient) DeleteDirectory(prefix string) error {
	ctx := context.Background()

	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶是否存在失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶 %s 不存在", m.bucketName)
	}

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var objectsToDelete []minio.ObjectInfo
	for object := range objectCh {
		if object.Err != nil {
			log.Printf("列出对象时出错: %v", object.Err)
			continue
		}
		objectsToDelete = append(objectsToDelete, object)
	}

	if len(objectsToDelete) == 0 {
		return fmt.Errorf("目录 %s 为空或不存在", prefix)
	}

	objectsCh := make(chan minio.ObjectInfo, len(objectsToDelete))
	go func() {
		defer close(objectsCh)
		for _, obj := range objectsToDelete {
			objectsCh <- obj
		}
	}()

	errorsCh := m.client.RemoveObjects(ctx, m.bucketName, objectsCh, minio.RemoveObjectsOptions{})
	for err := range errorsCh {
		if err.Err != nil {
			return fmt.Errorf("删除对象 %s 失败: %w", err.ObjectName, err.Err)
		}
	}

	fmt.Printf("成功删除目录 %s 及其下的 %d 个文件\n", prefix, len(objectsToDelete))
	return nil
}
