package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/IBM/sarama"
	"github.com/aws/aws-msk-iam-sasl-signer-go/signer"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	kafkagoscram "github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
)

// SASL mechanisms accepted in sasl_mechanism.
const (
	SASLPlain       = "PLAIN"
	SASLScramSHA256 = "SCRAM-SHA-256"
	SASLScramSHA512 = "SCRAM-SHA-512"
	SASLAWSMSKIAM   = "AWS_MSK_IAM"
)

// usesTLS reports whether the security protocol runs over TLS.
func usesTLS(protocol string) bool {
	return protocol == "SSL" || protocol == "SASL_SSL"
}

// usesSASL reports whether the security protocol authenticates with SASL.
func usesSASL(protocol string) bool {
	return protocol == "SASL_PLAINTEXT" || protocol == "SASL_SSL"
}

// configureSaramaSecurity configures SASL and TLS settings
func configureSaramaSecurity(saramaConfig *sarama.Config, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.SecurityProtocol {
	case "PLAINTEXT", "":
		logger.Debug("Using PLAINTEXT security protocol")
		return nil
	case "SSL", "SASL_PLAINTEXT", "SASL_SSL":
	default:
		return fmt.Errorf("unsupported security protocol: %s", cfg.SecurityProtocol)
	}

	if usesTLS(cfg.SecurityProtocol) {
		tlsConfig, err := buildTLSConfig(cfg.TLS, logger)
		if err != nil {
			return err
		}
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = tlsConfig
	}

	if usesSASL(cfg.SecurityProtocol) {
		return configureSaramaSASL(saramaConfig, cfg, logger)
	}
	return nil
}

// configureSaramaSASL configures SASL authentication
func configureSaramaSASL(saramaConfig *sarama.Config, cfg *config.Config, logger *zap.Logger) error {
	saramaConfig.Net.SASL.Enable = true

	switch cfg.SASLMechanism {
	case SASLPlain:
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		saramaConfig.Net.SASL.User = cfg.SASLUsername
		saramaConfig.Net.SASL.Password = cfg.SASLPassword

	case SASLScramSHA256:
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		saramaConfig.Net.SASL.User = cfg.SASLUsername
		saramaConfig.Net.SASL.Password = cfg.SASLPassword
		saramaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &XDGSCRAMClient{HashGeneratorFcn: SHA256}
		}

	case SASLScramSHA512:
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		saramaConfig.Net.SASL.User = cfg.SASLUsername
		saramaConfig.Net.SASL.Password = cfg.SASLPassword
		saramaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &XDGSCRAMClient{HashGeneratorFcn: SHA512}
		}

	case SASLAWSMSKIAM:
		if !cfg.AWSMSK.Enabled {
			return fmt.Errorf("AWS MSK IAM authentication requires aws_msk.enabled=true")
		}
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypeOAuth
		saramaConfig.Net.SASL.TokenProvider = &MSKAccessTokenProvider{region: cfg.AWSMSK.Region}

	default:
		return fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
	}

	logger.Info("Using SASL authentication", zap.String("mechanism", cfg.SASLMechanism))
	return nil
}

// kafkaGoSASL builds the kafka-go SASL mechanism for cfg, or nil when SASL
// is not in use.
func kafkaGoSASL(cfg *config.Config) (sasl.Mechanism, error) {
	if !usesSASL(cfg.SecurityProtocol) {
		return nil, nil
	}

	switch cfg.SASLMechanism {
	case SASLPlain:
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case SASLScramSHA256:
		return kafkagoscram.Mechanism(kafkagoscram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case SASLScramSHA512:
		return kafkagoscram.Mechanism(kafkagoscram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	case SASLAWSMSKIAM:
		return nil, fmt.Errorf("AWS MSK IAM authentication requires the %s driver", config.DriverSarama)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
	}
}

// buildTLSConfig loads the CA and client certificates named in cfg
func buildTLSConfig(cfg config.TLSConfig, logger *zap.Logger) (*tls.Config, error) {
	if !cfg.Enabled {
		logger.Warn("TLS is required by the security protocol but not enabled in config")
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CACertFile != "" {
		caCert, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
		logger.Info("Loaded CA certificate", zap.String("file", cfg.CACertFile))
	}

	if cfg.ClientCertFile != "" && cfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
		logger.Info("Loaded client certificate",
			zap.String("certFile", cfg.ClientCertFile),
			zap.String("keyFile", cfg.ClientKeyFile),
		)
	}

	return tlsConfig, nil
}

// MSKAccessTokenProvider implements the AWS MSK IAM token provider
type MSKAccessTokenProvider struct {
	region string
}

func (m *MSKAccessTokenProvider) Token() (*sarama.AccessToken, error) {
	token, _, err := signer.GenerateAuthToken(context.Background(), m.region)
	if err != nil {
		return nil, err
	}
	return &sarama.AccessToken{Token: token}, nil
}
