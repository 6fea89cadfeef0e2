package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/cosmikwolf/exprbench"
	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/cosmikwolf/exprbench/workload"
	"github.com/gin-gonic/gin"
)

var (
	stopChan = make(chan struct{}, 1)
)

func startGin(port int, drv *hwtimer.Driver) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery()) // no debug logging
	exprbench.AssertNoErr(exprbench.ND, engine.SetTrustedProxies(nil))
	engine.POST("/bench", func(ctx *gin.Context) { runBench4Gin(ctx, drv) })
	engine.GET("/diag", func(ctx *gin.Context) { reportDiag4Gin(ctx, drv) })
	engine.POST("/diag/reset", func(ctx *gin.Context) {
		drv.ResetDiagnostics()
		ctx.JSON(http.StatusOK, gin.H{"status": "reset"})
	})

	logger.Info().Msg("-- Starting server...")
	go func() { exprbench.AssertNoErr(exprbench.ND, engine.Run(fmt.Sprintf(":%d", port))) }()

	<-stopChan
	os.Exit(0)
}

func runBench4Gin(ctx *gin.Context, drv *hwtimer.Driver) {
	request := new(BenchRequest)

	if err := ctx.BindJSON(&request); err != nil {
		return
	}

	if request.Runs == -1 {
		logger.Info().Msg("-- Stopping server...")
		ctx.JSON(http.StatusOK, gin.H{"status": "done"})
		stopChan <- exprbench.ND
		return
	}

	factory, err := workload.Lookup(request.Workload)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	size := request.Size
	if size <= 0 {
		size = 1000
	}

	task := exprbench.TestTask(factory(size))
	stats, err := exprbench.RunBench(drv, []exprbench.TestTask{task}, request.Runs)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, stats[0])
}

func reportDiag4Gin(ctx *gin.Context, drv *hwtimer.Driver) {
	ctx.JSON(http.StatusOK, gin.H{
		"overflows":       drv.Overflows(),
		"short_intervals": drv.ShortIntervals(),
		"repairs":         drv.Repairs(),
		"saturations":     drv.Saturations(),
	})
}
