package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"thrivex/internal/interchange"
	"thrivex/internal/services"
	"thrivex/pkg/client"
	"thrivex/pkg/config"

	"github.com/spf13/cobra"
)

var importOpts struct {
	maxFiles int
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "在本地解析 Markdown/JSON 文件并逐篇提交到后台",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if importOpts.maxFiles > 0 && len(args) > importOpts.maxFiles {
				return fmt.Errorf("单次最多导入 %d 个文件，当前 %d 个", importOpts.maxFiles, len(args))
			}

			c, err := connect(ctx)
			if err != nil {
				return err
			}

			files := make([]interchange.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, interchange.File{Name: filepath.Base(path), Data: data})
			}

			tags, err := c.Tags(ctx)
			if err != nil {
				return fmt.Errorf("获取标签失败: %w", err)
			}
			cates, err := c.Cates(ctx)
			if err != nil {
				return fmt.Errorf("获取分类失败: %w", err)
			}

			importer := &interchange.Importer{
				Codec:     interchange.Codec{Location: time.Local},
				Tags:      tags,
				Cates:     cates,
				Submitter: c,
				OnProgress: func(p interchange.Progress) {
					fmt.Fprintf(out, "[%d/%d] %s\n", p.Done, p.Total, describeItem(p.Item))
				},
			}

			report, err := importer.Import(ctx, files)
			if report != nil {
				fmt.Fprintf(out, "解析 %d 篇，成功 %d 篇，失败 %d 篇，无效文件 %d 个\n",
					report.Parsed, report.Imported, report.Failed, report.Invalid)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&importOpts.maxFiles, "max-files", config.ImportMaxFiles(), "单次最多导入的文件数，0 表示不限制")
	return cmd
}

func describeItem(it interchange.Item) string {
	name := it.Title
	if name == "" {
		name = it.File
	}
	if it.Error != "" {
		return fmt.Sprintf("%s %s: %s", it.Status, name, it.Error)
	}
	return fmt.Sprintf("%s %s", it.Status, name)
}

func exportCmd() *cobra.Command {
	var (
		ids    []uint
		output string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出文章为 zip（data/*.md + articles.json）",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := connect(ctx)
			if err != nil {
				return err
			}

			if output == "" {
				output = interchange.ArchiveName(time.Now())
			}

			var data []byte
			if remote {
				data, err = c.ExportArchive(ctx, ids)
				if err != nil {
					return err
				}
			} else {
				articles, err := fetchArticles(ctx, c, ids)
				if err != nil {
					return err
				}
				codec := interchange.Codec{Location: time.Local}
				if data, err = codec.BuildArchive(articles); err != nil {
					return err
				}
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出到 %s\n", output)
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "要导出的文章ID，为空时导出全部未删除的文章")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件")
	cmd.Flags().BoolVar(&remote, "remote", false, "由后台生成压缩包")
	return cmd
}

func fetchArticles(ctx context.Context, c *client.Client, ids []uint) ([]interchange.Article, error) {
	if len(ids) == 0 {
		list, err := c.Articles(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]interchange.Article, 0, len(list))
		for _, a := range list {
			out = append(out, services.ToInterchange(a))
		}
		return out, nil
	}

	out := make([]interchange.Article, 0, len(ids))
	for _, id := range ids {
		a, err := c.Article(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("获取文章 %d 失败: %w", id, err)
		}
		out = append(out, services.ToInterchange(*a))
	}
	return out, nil
}
