package geyserAdapter

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/url"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"pf-trader/internal/parser"
)

type GeyserUtils struct {
	// Token is sent as x-token metadata when set.
	Token string
}

func NewGeyserAdapter(token string) GeyserUtils {
	return GeyserUtils{Token: token}
}

// CreateSubscriptionRequest subscribes to successful transactions that touch
// mint and invoke the pump.fun program.
func (x GeyserUtils) CreateSubscriptionRequest(mint string) *pb.SubscribeRequest {
	f := false
	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			"pump": {
				Vote:            &f,
				Failed:          &f,
				AccountInclude:  []string{mint},
				AccountRequired: []string{parser.PumpProgram},
			},
		},
	}
}

// WithAuth attaches the x-token header, if any, to an outgoing context.
func (x GeyserUtils) WithAuth(ctx context.Context) context.Context {
	if x.Token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "x-token", x.Token)
}

func (x GeyserUtils) CreateGRPCConnection(endpoint string) (*grpc.ClientConn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid endpoint URL %q: missing host", endpoint)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
	}

	if u.Scheme == "https" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to get system cert pool: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(pool, "")))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	return grpc.NewClient(fmt.Sprintf("%s:%s", u.Hostname(), port), opts...)
}
