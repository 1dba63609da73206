package grpcstore

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/storage"
)

// Client implements storage.ContentStore over the ContentStore gRPC service.
//
// Removing a remote node from a network only drops the connection; the
// daemon owns its content.
type Client struct {
	cc     *grpc.ClientConn
	client ContentStoreClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration

	// Log is optional.
	Log *zerolog.Logger
}

var (
	_ storage.ContentStore = (*Client)(nil)
	_ storage.Counter      = (*Client)(nil)
)

func (c *Client) logger() *zerolog.Logger {
	if c.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return c.Log
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra options appended after the defaults (e.g. a custom dialer in tests).
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewContentStoreClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(payload []byte) (storage.CID, error) {
	expected := cidutil.Generate(payload)

	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(payload))
	if err != nil {
		return "", mapRPC(err)
	}
	id, err := cidutil.ParseV1(reply.GetValue())
	if err != nil {
		return "", storage.ErrInvalidCID
	}
	if id != expected {
		return "", storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Get(id storage.CID) ([]byte, error) {
	v1, err := cidutil.ToV1(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(v1.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if cidutil.Generate(b) != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *Client) Has(id storage.CID) bool {
	v1, err := cidutil.ToV1(id)
	if err != nil {
		return false
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(v1.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

// Len returns the remote store's object count, or 0 if the daemon is
// unreachable. Use Count to tell the two apart.
func (c *Client) Len() int {
	n, err := c.Count()
	if err != nil {
		c.logger().Debug().Err(err).Str("target", c.cc.Target()).Msg("remote len failed")
		return 0
	}
	return n
}

// Count returns the remote store's object count.
func (c *Client) Count() (int, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Len(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, mapRPC(err)
	}
	return int(reply.GetValue()), nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
