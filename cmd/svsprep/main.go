// svsprep 把歌声语料整理成训练所需的 Kaldi 风格数据目录
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var cfgErr *utils.ConfigurationError
		if errors.As(err, &cfgErr) {
			color.Red("配置错误: %s - %s", cfgErr.Field, cfgErr.Message)
			os.Exit(2)
		}
		color.Red("运行失败: %v", err)
		os.Exit(1)
	}
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   svsprep - 歌声合成数据准备   ")
	color.Cyan("================================")
	fmt.Println()
}
