// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command cifartrain trains and evaluates the CIFAR-10 convolutional
// classifier against the extracted binary dataset.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cifar-ml/cifarnet/autodiff"
	"github.com/cifar-ml/cifarnet/backend/cpu"
	"github.com/cifar-ml/cifarnet/cifar10"
)

var (
	dataDir         string
	hyperparamsPath string
	learningRate    float64
	decay           float64
	steps           int
	batchSize       int
	logEvery        int
	seed            int64
	evalAfterTrain  bool
	checkpointPath  string
	restorePath     string
)

var rootCmd = &cobra.Command{
	Use:   "cifartrain",
	Short: "Train and evaluate a CIFAR-10 convolutional classifier",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run training steps against the data_batch shards",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		backend := autodiff.New(cpu.New())

		model, err := cifar10.BuildModel(hyperparameters(), cfg, backend)
		if err != nil {
			return err
		}

		if restorePath != "" {
			if err := model.Load(restorePath); err != nil {
				return err
			}
			fmt.Printf("restored weights from %s\n", restorePath)
		}

		train, err := cifar10.TrainInput(dataDir, cfg, backend)
		if err != nil {
			return err
		}
		defer train.Close()

		result, err := cifar10.Fit(model, train, steps, func(step int, loss float32) {
			if logEvery > 0 && step%logEvery == 0 {
				fmt.Printf("step %d/%d  loss %.4f  lr %.6f\n", step, steps, loss, model.Optimizer().GetLR())
			}
		})
		if err != nil {
			return err
		}
		fmt.Printf("trained %d steps, final loss %.4f\n", result.Steps, result.FinalLoss)

		if checkpointPath != "" {
			if err := model.Save(checkpointPath, result.Steps, float64(result.FinalLoss)); err != nil {
				return err
			}
			fmt.Printf("saved checkpoint to %s\n", checkpointPath)
		}

		if !evalAfterTrain {
			return nil
		}
		eval, err := cifar10.EvalInput(dataDir, cfg, backend)
		if err != nil {
			return err
		}
		defer eval.Close()
		return printEvaluation(model, eval)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a model over the test_batch shard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		backend := autodiff.New(cpu.New())

		model, err := cifar10.BuildModel(hyperparameters(), cfg, backend)
		if err != nil {
			return err
		}
		if restorePath != "" {
			if err := model.Load(restorePath); err != nil {
				return err
			}
		}

		eval, err := cifar10.EvalInput(dataDir, cfg, backend)
		if err != nil {
			return err
		}
		defer eval.Close()
		return printEvaluation(model, eval)
	},
}

var servingCmd = &cobra.Command{
	Use:   "serving",
	Short: "Print the serving input signature",
	Run: func(cmd *cobra.Command, args []string) {
		receiver := cifar10.ServingInput(pipelineConfig())
		for name, spec := range receiver.Features {
			fmt.Printf("%s: %s%v\n", name, spec.DType, spec.Shape)
		}
	},
}

func pipelineConfig() cifar10.Config {
	cfg := cifar10.DefaultConfig()
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}
	cfg.Seed = seed
	return cfg
}

// hyperparameters merges the optional YAML file with the flag overrides.
// Flags win; the model builder reports anything still missing.
func hyperparameters() cifar10.Hyperparameters {
	hp := cifar10.Hyperparameters{}
	if hyperparamsPath != "" {
		loaded, err := cifar10.LoadHyperparameters(hyperparamsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		hp = loaded
	}
	if learningRate >= 0 {
		hp[cifar10.HyperLearningRate] = learningRate
	}
	if decay >= 0 {
		hp[cifar10.HyperDecay] = decay
	}
	return hp
}

func printEvaluation[B autodiff.BackwardCapable](model *cifar10.Model[B], eval *cifar10.Iterator[B]) error {
	result, err := cifar10.Evaluate(model, eval)
	if err != nil {
		return err
	}
	fmt.Printf("evaluated %d examples: loss %.4f, accuracy %.2f%%\n",
		result.Examples, result.Loss, 100*result.Accuracy)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", ".", "Directory holding cifar-10-batches-bin")
	rootCmd.PersistentFlags().StringVar(&hyperparamsPath, "hyperparams", "", "YAML file of hyperparameters")
	rootCmd.PersistentFlags().Float64Var(&learningRate, "learning-rate", -1, "Override the learning_rate hyperparameter")
	rootCmd.PersistentFlags().Float64Var(&decay, "decay", -1, "Override the decay hyperparameter")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "Batch size (default 128)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for augmentation and shuffling")

	trainCmd.Flags().IntVar(&steps, "steps", 1000, "Number of training steps")
	trainCmd.Flags().IntVar(&logEvery, "log-every", 100, "Print the loss every N steps (0 disables)")
	trainCmd.Flags().BoolVar(&evalAfterTrain, "eval", true, "Evaluate on test_batch after training")
	trainCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "Save weights to this file after training")
	trainCmd.Flags().StringVar(&restorePath, "restore", "", "Load weights from this checkpoint before training")
	evalCmd.Flags().StringVar(&restorePath, "restore", "", "Load weights from this checkpoint")
}

func main() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(servingCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
