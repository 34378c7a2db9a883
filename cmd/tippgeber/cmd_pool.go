// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tippgeber/tippgeber/services/answers"
	"github.com/tippgeber/tippgeber/services/config"
	"github.com/tippgeber/tippgeber/services/pool"
)

var (
	poolEnsureCmd = &cobra.Command{
		Use:   "ensure",
		Short: "Fill the answer pool up to max_size",
		RunE:  runPoolEnsure,
	}

	poolRotateCmd = &cobra.Command{
		Use:   "rotate",
		Short: "Replace the oldest answers with a fresh batch",
		RunE:  runPoolRotate,
	}

	poolStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the persisted pool summary",
		RunE:  runPoolStatus,
	}

	generateCmd = &cobra.Command{
		Use:   "generate [count]",
		Short: "Generate answers once and print them, without touching the pool",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerate,
	}
)

func newPoolService() (*pool.Service, *config.Config, error) {
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, nil, err
	}
	return pool.NewService(pool.NewStore(poolPath), nil), cfg, nil
}

func runPoolEnsure(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newPoolService()
	if err != nil {
		return err
	}
	result, err := svc.EnsurePool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s: generated %d, pool now holds %d answers\n", result.Action, result.Generated, result.Total)
	return nil
}

func runPoolRotate(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newPoolService()
	if err != nil {
		return err
	}
	result, err := svc.Rotate(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d, added %d, pool now holds %d answers\n", result.Removed, result.Added, result.Total)
	return nil
}

func runPoolStatus(cmd *cobra.Command, args []string) error {
	status := pool.NewStore(poolPath).Status()
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}
	count := cfg.Speech.Pool.AnswersPerRequest
	if len(args) == 1 {
		count, err = strconv.Atoi(args[0])
		if err != nil || count < 1 {
			return fmt.Errorf("count must be a positive integer")
		}
	}
	generated, err := answers.GenerateAnswers(cmd.Context(), cfg, count)
	if err != nil {
		return err
	}
	for _, a := range generated {
		fmt.Println("-", a)
	}
	return nil
}
