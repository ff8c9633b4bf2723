// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/config"
	myGRPC "github.com/MKhiriev/go-budget-sync/internal/handler/grpc"
	"github.com/MKhiriev/go-budget-sync/internal/logger"

	"google.golang.org/grpc"
)

// healthRefreshInterval is how often the gRPC health status re-pings storage.
const healthRefreshInterval = 5 * time.Second

type grpcServer struct {
	handler *myGRPC.Handler

	server          *grpc.Server
	gRPCNetListener net.Listener

	// watchCtx bounds the health refresh loop.
	watchCtx context.Context
	cancel   context.CancelFunc

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.Server, logger *logger.Logger) (*grpcServer, error) {
	listener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddress, err)
	}

	srv := grpc.NewServer()
	handler.Register(srv)

	watchCtx, cancel := context.WithCancel(context.Background())
	return &grpcServer{
		handler:         handler,
		server:          srv,
		gRPCNetListener: listener,
		watchCtx:        watchCtx,
		cancel:          cancel,
		logger:          logger,
	}, nil
}

func (g *grpcServer) Addr() string {
	return g.gRPCNetListener.Addr().String()
}

func (g *grpcServer) RunServer() {
	go g.handler.Watch(g.watchCtx, healthRefreshInterval)

	if err := g.server.Serve(g.gRPCNetListener); err != nil {
		g.logger.Error().Err(err).Msg("gRPC server Serve")
	}
}

func (g *grpcServer) Shutdown() {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.handler.Shutdown()
	g.cancel()
	g.server.GracefulStop()
	// Serve closes the listener on stop; this covers a server that never ran.
	_ = g.gRPCNetListener.Close()
}
