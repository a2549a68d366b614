package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/logx"
)

// Closer is anything released at shutdown, like a connection pool or a pool.ShardManager.
type Closer interface {
	Shutdown(ctx context.Context) error
}

// WaitForShutdown waits for OS signals (SIGINT, SIGTERM) to gracefully shut down the application.
// It runs the cleanup code provided by the cleanupCallback function within a context with a specified timeout.
//
// Parameters:
//   - rootCtx: The parent context.
//   - timeout: How long the cleanup callback is given to complete.
//   - cleanupCallback: A function that contains the cleanup code to execute during shutdown, and that takes a timeoutCtx.
//
// Usage:
//
//	shutdown.WaitForShutdown(context.Background(), 5*time.Second, func(timeoutCtx context.Context) {
//	    _ = dbPool.Shutdown(timeoutCtx)
//	})
func WaitForShutdown(rootCtx context.Context, timeout time.Duration, cleanupCallback func(timeoutCtx context.Context)) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	waitForSignal(rootCtx, signals, timeout, cleanupCallback)
}

// ShutdownOnSignal waits for SIGINT or SIGTERM and then shuts every closer down, in order,
// within timeout.
func ShutdownOnSignal(rootCtx context.Context, timeout time.Duration, closers ...Closer) {
	WaitForShutdown(rootCtx, timeout, CloseAll(closers...))
}

// CloseAll returns a cleanup callback shutting every closer down and logging failures.
func CloseAll(closers ...Closer) func(ctx context.Context) {
	return func(ctx context.Context) {
		for _, c := range closers {
			if err := c.Shutdown(ctx); err != nil {
				logx.GetLogger().LogError(ctx, "Error shutting down resource", err)
			}
		}
	}
}

func waitForSignal(rootCtx context.Context, signals <-chan os.Signal, timeout time.Duration, cleanupCallback func(timeoutCtx context.Context)) {
	// capture sigterm and other system call here
	select {
	case signalCaptured := <-signals:
		logx.GetLogger().LogDebug(rootCtx, fmt.Sprintf("Interrupt signal captured: %s", signalCaptured.String()))
	case <-rootCtx.Done():
		logx.GetLogger().LogDebug(rootCtx, "Root context done, shutting down")
	}

	// Create a context with a timeout to give time to release resource
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(rootCtx), timeout)
	defer cancel()

	cleanUp(timeoutCtx, cleanupCallback)
}

// cleanUp executes the provided cleanup callback function and logs the result.
// It waits for either the cleanup to complete or the context to be cancelled.
func cleanUp(timeoutCtx context.Context, cleanupCallback func(timeoutCtx context.Context)) {
	logx.GetLogger().LogInfo(timeoutCtx, "Cleaning up all resources ....")

	// Channel used to receive the result from cleanup callback function
	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		if cleanupCallback != nil {
			cleanupCallback(timeoutCtx)
		}
		ch <- "All resources cleaned up"
	}()

	select {
	case <-timeoutCtx.Done():
		logx.GetLogger().LogError(timeoutCtx, "Deadline exceeded during context cancellation", timeoutCtx.Err())
	case result := <-ch:
		logx.GetLogger().LogInfo(timeoutCtx, result)
	}
}

// RunTaskWithContextCancellationCheck executes a task and provides a mechanism to notify the task of impending cancellation.
// This allows the task to perform cleanup or error handling before the context is cancelled.
// The function listens for system signals (SIGTERM, SIGINT) and sends a termination signal to the task,
// allowing it to gracefully terminate before the context is cancelled.
//
// Usage:
//
//	shutdown.RunTaskWithContextCancellationCheck(ctx, func(cancelCtx context.Context, terminateSignal chan struct{}) error {
//	    ticker := time.NewTicker(time.Second)
//	    defer ticker.Stop()
//	    for {
//	        select {
//	        case <-terminateSignal:
//	            return nil
//	        case <-ticker.C:
//	            _ = dbPool.Connect(cancelCtx, work)
//	        }
//	    }
//	})
func RunTaskWithContextCancellationCheck(rootCtx context.Context, task func(cancelCtx context.Context, terminateSignal chan struct{}) error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	return runTask(rootCtx, sigs, task)
}

func runTask(rootCtx context.Context, sigs <-chan os.Signal, task func(cancelCtx context.Context, terminateSignal chan struct{}) error) error {
	cancelCtx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	terminateSignal := make(chan struct{})
	taskCompleted := make(chan error, 1)

	go func() {
		taskCompleted <- task(cancelCtx, terminateSignal)
	}()

	select {
	case sig := <-sigs:
		logx.GetLogger().LogInfo(cancelCtx, fmt.Sprintf("Received signal: %s", sig))
		close(terminateSignal) // Signal termination to the task
		err := <-taskCompleted // Wait for the task to complete
		cancel()

		return err
	case err := <-taskCompleted:
		// Task completed without external termination signal
		if err != nil {
			logx.GetLogger().LogError(cancelCtx, "Task error", err)
		}
		cancel()

		return err
	}
}
