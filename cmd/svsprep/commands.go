package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ccp-p/asr-media-cli/svsprep/internal/controller"
	"github.com/ccp-p/asr-media-cli/svsprep/internal/ui"
	"github.com/ccp-p/asr-media-cli/svsprep/internal/watcher"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/models"
	"github.com/ccp-p/asr-media-cli/svsprep/pkg/utils"
)

// cli 保存一次命令执行期间的状态
type cli struct {
	v        *viper.Viper
	config   *models.Config
	progress *ui.ProgressManager
	quiet    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "svsprep",
		Short:         "歌声合成语料的数据准备工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.teardown()
		},
	}
	registerFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "不打印欢迎信息和摘要")

	root.AddCommand(
		c.runCmd(),
		c.stageCmd(controller.StageSplit, "把语料划分为训练/验证/评测三个话语级目录"),
		c.stageCmd(controller.StageSegment, "在长静音处切分各划分的话语"),
		c.stageCmd(controller.StageSpeakers, "为切分后的目录生成 utt2spk/spk2utt"),
		c.stageCmd(controller.StageTokens, "由训练集生成符号表"),
		c.watchCmd(),
		c.configCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}
	c.v = v

	if err := utils.InitLogger(v.GetString("log_level"), v.GetString("log_file")); err != nil {
		return err
	}
	// config 子命令允许配置不完整
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		return nil
	}

	config, err := loadConfig(v)
	if err != nil {
		return err
	}
	c.config = config

	c.progress = ui.NewProgressManager(cmd.OutOrStdout(), config.ShowProgress)
	if config.ShowProgress {
		if err := utils.EnableProgressMode(config.LogFile); err != nil {
			return err
		}
	}
	if !c.quiet {
		printWelcome()
	}
	return nil
}

func (c *cli) teardown() {
	if c.progress != nil {
		c.progress.CloseAll("已结束")
	}
	if c.config != nil && c.config.ShowProgress {
		utils.DisableProgressMode()
	}
}

func (c *cli) run(ctx context.Context, cmd *cobra.Command, stages ...controller.Stage) error {
	p, err := controller.NewPipeline(c.config, c.progress)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx, stages...)
	p.ErrorHandler().PrintErrorStats()
	if err != nil {
		return err
	}
	if !c.quiet {
		controller.PrintSummary(cmd.OutOrStdout(), result)
	}
	return nil
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [stage...]",
		Short: "依次执行全部步骤，或只执行给定步骤 (split segment speakers tokens)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages := make([]controller.Stage, 0, len(args))
			for _, arg := range args {
				s, err := controller.ParseStage(arg)
				if err != nil {
					return err
				}
				stages = append(stages, s)
			}
			return c.run(cmd.Context(), cmd, stages...)
		},
	}
}

func (c *cli) stageCmd(stage controller.Stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(stage),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), cmd, stage)
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "先完整运行一次，然后监控语料目录，变化时重新生成",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c.config.PrintConfig()
			if err := c.run(ctx, cmd); err != nil {
				utils.Error("首次运行失败: %v", err)
			}

			w, err := watcher.NewCorpusWatcher(ctx, c.config, func(ctx context.Context) error {
				return c.run(ctx, cmd)
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			utils.Info("监控已启动，按Ctrl+C退出...")
			<-ctx.Done()
			utils.Info("接收到中断信号，正在停止...")
			return nil
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "查看或保存生效的配置",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "以 YAML 打印合并后的配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := models.NewDefaultConfig()
			if err := c.v.Unmarshal(config); err != nil {
				return utils.NewError("解析配置失败", err)
			}
			data, err := yaml.Marshal(config)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			if err := config.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "# %v\n", err)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "单独校验一个配置文件 (.json 或 .yaml)，不叠加环境变量和命令行参数",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := models.NewDefaultConfig()
			if err := config.LoadFromFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "配置有效: %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "save <path>",
		Short: "把合并后的配置写入文件 (.json 或 .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := models.NewDefaultConfig()
			if err := c.v.Unmarshal(config); err != nil {
				return utils.NewError("解析配置失败", err)
			}
			if _, err := os.Stat(args[0]); err == nil {
				utils.Warn("覆盖已有配置文件: %s", args[0])
			}
			return config.SaveToFile(args[0])
		},
	})
	return cmd
}
