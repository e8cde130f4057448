package server

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/danielpatrickdp/track-reward/internal/episode"
	"github.com/danielpatrickdp/track-reward/internal/observation"
	"github.com/danielpatrickdp/track-reward/internal/reward"
	"github.com/danielpatrickdp/track-reward/internal/rewardrpc"
)

// #region codes
var invalidArgument = []error{
	observation.ErrMissingField,
	observation.ErrInvalidValue,
	observation.ErrWaypointIndex,
	observation.ErrTrackGeometry,
	reward.ErrUnknownStrategy,
	reward.ErrDegenerateEfficiency,
	reward.ErrNonFiniteReward,
	rewardrpc.ErrMalformed,
}

// Code classifies an error from Score, Open, End or Summary.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case lo.ContainsBy(invalidArgument, func(target error) bool { return errors.Is(err, target) }):
		return codes.InvalidArgument
	case errors.Is(err, episode.ErrEpisodeNotFound):
		return codes.NotFound
	case errors.Is(err, ErrEpisodeEnded), errors.Is(err, ErrStrategyMismatch):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	return status.Error(Code(err), err.Error())
}

// #endregion codes

// #region interceptor
// UnaryLogger logs every RPC with its status code and latency.
func UnaryLogger(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("rpc failed")
		} else {
			entry.Debug("rpc")
		}
		return resp, err
	}
}

// #endregion interceptor
