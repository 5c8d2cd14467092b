// Package domain define contratos e tipos de domínio do gate de admissão:
// identidade e formatos de evento, veredictos, configuração e as portas para
// colaboradores externos (Messenger, MembershipProbe, StatsStore, Handler).
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
