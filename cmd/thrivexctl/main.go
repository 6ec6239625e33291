package main

import (
	"context"
	"fmt"
	"os"

	"thrivex/pkg/client"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	server   string
	token    string
	username string
	password string
	verbose  bool
}

var opts globalOptions

var rootCmd = &cobra.Command{
	Use:   "thrivexctl",
	Short: "ThriveX 后台命令行工具",
	Long:  "thrivexctl 通过后台REST接口批量导入导出文章、查看和修改角色的页面与权限绑定",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if opts.verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
	SilenceUsage: true,
}

func init() {
	_ = godotenv.Load()

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.server, "server", "s", envOr("THRIVEX_SERVER", "http://localhost:9003/api/v1"), "后台接口地址")
	flags.StringVar(&opts.token, "token", os.Getenv("THRIVEX_TOKEN"), "登录令牌，为空时使用用户名密码登录")
	flags.StringVarP(&opts.username, "username", "u", os.Getenv("THRIVEX_USERNAME"), "用户名")
	flags.StringVarP(&opts.password, "password", "p", os.Getenv("THRIVEX_PASSWORD"), "密码")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(loginCmd(), importCmd(), exportCmd(), roleCmd())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// connect 创建客户端，没有令牌时先登录
func connect(ctx context.Context) (*client.Client, error) {
	c := client.New(opts.server)
	if opts.token != "" {
		c.SetToken(opts.token)
		return c, nil
	}
	if opts.username == "" || opts.password == "" {
		return nil, fmt.Errorf("需要 --token 或 --username/--password")
	}
	if _, err := c.Login(ctx, opts.username, opts.password); err != nil {
		return nil, fmt.Errorf("登录失败: %w", err)
	}
	logrus.WithField("username", opts.username).Debug("logged in")
	return c, nil
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "登录并输出令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(opts.server)
			result, err := c.Login(cmd.Context(), opts.username, opts.password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			return nil
		},
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
