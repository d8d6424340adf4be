//go:build protogen

package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authv1 "github.com/vibeseat/vibeseat/protos/gen/auth/v1"
	"github.com/vibeseat/vibeseat/services/auth-service/internal/storage"
)

type server struct {
	authv1.UnimplementedAuthServiceServer
	users *storage.UserRepository
}

func Register(grpcServer *grpc.Server, users *storage.UserRepository) {
	authv1.RegisterAuthServiceServer(grpcServer, &server{users: users})
}

// GetContact resolves a user's notification endpoints for the booking
// service's reminder pipeline.
func (s *server) GetContact(ctx context.Context, req *authv1.ContactRequest) (*authv1.ContactResponse, error) {
	if req.GetUserId() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	user, err := s.users.GetByID(ctx, req.GetUserId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "failed to load user")
	}

	return &authv1.ContactResponse{
		UserId: user.ID,
		Email:  user.Email,
		Phone:  user.Phone,
	}, nil
}
